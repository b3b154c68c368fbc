package knowledgelearning

import (
	"context"
	"fmt"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/models"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
)

// IsEntitled reports whether an account may access a lesson in st: either
// the lesson was granted directly, or the lesson currently belongs to a
// directly granted course. The course check is live, so moving a lesson
// between courses immediately changes what its purchasers can reach.
func IsEntitled(ctx context.Context, st store.Store, accountID models.AccountID, lessonID models.LessonID) (bool, error) {
	lessons, err := st.ListEntitledLessonIDs(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("failed to list lesson entitlements: %w", err)
	}
	for _, id := range lessons {
		if id == lessonID {
			return true, nil
		}
	}

	lesson, err := st.GetLesson(ctx, lessonID)
	if err != nil {
		return false, fmt.Errorf("failed to get lesson: %w", err)
	}
	if lesson == nil {
		return false, fmt.Errorf("%w: lesson %s", store.ErrNotFound, lessonID)
	}

	courses, err := st.ListEntitledCourseIDs(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("failed to list course entitlements: %w", err)
	}
	for _, id := range courses {
		if id == lesson.CourseID {
			return true, nil
		}
	}
	return false, nil
}
