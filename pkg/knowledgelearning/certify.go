package knowledgelearning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/models"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
)

// Certifier awards topic certifications. An account earns a topic's
// certification once it is entitled to every lesson of every course under
// the topic; at most one award exists per (account, topic) pair.
type Certifier struct {
	log zerolog.Logger
}

// NewCertifier builds the certification engine.
func NewCertifier(log zerolog.Logger) *Certifier {
	return &Certifier{log: log}
}

// Evaluate checks whether the account has completed the topic in st and
// awards the certification if so. It returns the new certification, or nil
// when the topic is incomplete, already certified, or another evaluation
// won the award concurrently.
//
// Concurrent evaluations both pass the completeness check; the store's
// unique index on (account, topic) rejects the second insert. That conflict
// is the expected loss of the race and is logged, not returned.
func (c *Certifier) Evaluate(ctx context.Context, st store.Store, accountID models.AccountID, topicID models.TopicID) (*models.Certification, error) {
	existing, err := st.GetCertification(ctx, accountID, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing certification: %w", err)
	}
	if existing != nil {
		return nil, nil
	}

	complete, err := c.topicComplete(ctx, st, accountID, topicID)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, nil
	}

	now := time.Now()
	cert := &models.Certification{
		AccountID:  &accountID,
		TopicID:    topicID,
		Obtained:   true,
		ObtainedAt: &now,
	}
	if err := st.CreateCertification(ctx, cert); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.log.Info().
				Str("backend", string(st.Backend())).
				Str("account_id", accountID.String()).
				Str("topic_id", topicID.String()).
				Msg("certification already awarded by concurrent evaluation")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create certification: %w", err)
	}

	c.log.Info().
		Str("backend", string(st.Backend())).
		Str("account_id", accountID.String()).
		Str("topic_id", topicID.String()).
		Msg("certification awarded")
	return cert, nil
}

// topicComplete reports whether every lesson of every course under the
// topic is entitled. A topic with no lessons never certifies.
func (c *Certifier) topicComplete(ctx context.Context, st store.Store, accountID models.AccountID, topicID models.TopicID) (bool, error) {
	courses, err := st.ListCourses(ctx, topicID)
	if err != nil {
		return false, fmt.Errorf("failed to list topic courses: %w", err)
	}
	var total int
	for _, course := range courses {
		lessons, err := st.ListLessons(ctx, course.ID)
		if err != nil {
			return false, fmt.Errorf("failed to list course lessons: %w", err)
		}
		for _, lesson := range lessons {
			entitled, err := IsEntitled(ctx, st, accountID, lesson.ID)
			if err != nil {
				return false, err
			}
			if !entitled {
				return false, nil
			}
			total++
		}
	}
	return total > 0, nil
}
