package knowledgelearning

import (
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/models"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
)

// Session key per backend. Each backend gets its own cart because the
// stores share no primary-key space: an ID collected against one backend
// means nothing to the other.
const (
	cartKeyRelational = "cart"
	cartKeyDocument   = "cart_doc"
)

// cartKeyFor returns the session key holding the cart for a backend.
func cartKeyFor(backend store.Backend) string {
	if backend == store.BackendDocument {
		return cartKeyDocument
	}
	return cartKeyRelational
}

// Cart is a session-scoped selection of lessons and courses for one
// backend. It stores only IDs; prices are resolved and snapshotted at
// checkout, so catalog edits between add and purchase are honored.
type Cart struct {
	Lessons []models.LessonID `json:"lessons"`
	Courses []models.CourseID `json:"courses"`
}

// AddLesson adds a lesson, ignoring duplicates.
func (c *Cart) AddLesson(id models.LessonID) {
	for _, have := range c.Lessons {
		if have == id {
			return
		}
	}
	c.Lessons = append(c.Lessons, id)
}

// AddCourse adds a course, ignoring duplicates.
func (c *Cart) AddCourse(id models.CourseID) {
	for _, have := range c.Courses {
		if have == id {
			return
		}
	}
	c.Courses = append(c.Courses, id)
}

// RemoveLesson removes a lesson if present.
func (c *Cart) RemoveLesson(id models.LessonID) {
	for i, have := range c.Lessons {
		if have == id {
			c.Lessons = append(c.Lessons[:i], c.Lessons[i+1:]...)
			return
		}
	}
}

// RemoveCourse removes a course if present.
func (c *Cart) RemoveCourse(id models.CourseID) {
	for i, have := range c.Courses {
		if have == id {
			c.Courses = append(c.Courses[:i], c.Courses[i+1:]...)
			return
		}
	}
}

// Empty reports whether the cart holds nothing.
func (c *Cart) Empty() bool {
	return len(c.Lessons) == 0 && len(c.Courses) == 0
}

// Clear drops every selection.
func (c *Cart) Clear() {
	c.Lessons = nil
	c.Courses = nil
}
