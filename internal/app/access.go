package app

import (
	"context"
	"errors"
	"fmt"

	"class_schedule_bot/internal/domain/course"
	"class_schedule_bot/internal/domain/enrollment"
	"class_schedule_bot/internal/domain/session"
)

// AccessGate decides whether content of a session may be shown.
type AccessGate struct {
	catalog course.Catalog
	// anonymousFreePreview lets users with no enrollment see free lessons.
	anonymousFreePreview bool
}

func NewAccessGate(catalog course.Catalog, anonymousFreePreview bool) *AccessGate {
	return &AccessGate{catalog: catalog, anonymousFreePreview: anonymousFreePreview}
}

// HasAccess is pure. Free lessons (position below the class free threshold)
// are open to any enrollment, and to no enrollment when anonymous preview is
// on. Paid lessons need a full access enrollment in the session's batch.
func (g *AccessGate) HasAccess(s *session.Session, e *enrollment.Enrollment) bool {
	if s == nil {
		return false
	}
	if e != nil && e.BatchID != s.BatchID {
		e = nil
	}
	if g.isFree(s) {
		return e != nil || g.anonymousFreePreview
	}
	return e != nil && e.AccessLevel == enrollment.AccessFull
}

func (g *AccessGate) isFree(s *session.Session) bool {
	if cls, ok := g.catalog.Lookup(s.ClassName); ok {
		return s.ContentPosition < cls.FreeThreshold
	}
	return s.IsFree
}

// ErrAccessDenied is returned when the gate refuses a lesson.
var ErrAccessDenied = fmt.Errorf("lesson requires full access")

// Lesson is a session together with the content it shows.
type Lesson struct {
	Session *session.Session
	Item    *course.ContentItem
}

// AccessService answers content access requests for a user.
type AccessService struct {
	sessions    session.Repository
	enrollments enrollment.Repository
	content     course.ContentRepository
	gate        *AccessGate
}

func NewAccessService(sr session.Repository, er enrollment.Repository, cr course.ContentRepository, gate *AccessGate) *AccessService {
	return &AccessService{sessions: sr, enrollments: er, content: cr, gate: gate}
}

// CanView loads the session and the user's enrollment in its batch and applies the gate.
func (s *AccessService) CanView(ctx context.Context, userID, sessionID int64) (*session.Session, bool, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}

	var enr *enrollment.Enrollment
	enr, err = s.enrollments.GetByUserAndBatch(ctx, userID, sess.BatchID)
	if err != nil {
		if !errors.Is(err, enrollment.ErrNotFound) {
			return sess, false, fmt.Errorf("failed to load enrollment of user %d: %w", userID, err)
		}
		enr = nil
	}
	return sess, s.gate.HasAccess(sess, enr), nil
}

// OpenLesson returns the lesson content of a session when the user may see it.
func (s *AccessService) OpenLesson(ctx context.Context, userID, sessionID int64) (*Lesson, error) {
	sess, ok, err := s.CanView(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccessDenied
	}

	items, err := s.content.ListByClass(ctx, sess.ClassName)
	if err != nil {
		return nil, fmt.Errorf("failed to load curriculum for %s: %w", sess.ClassName, err)
	}
	lesson := &Lesson{Session: sess}
	for _, it := range items {
		if it.ID == sess.ContentItemID {
			lesson.Item = it
			break
		}
	}
	if lesson.Item == nil {
		// Curriculum changed after generation; the session keeps its title.
		lesson.Item = &course.ContentItem{
			ID:        sess.ContentItemID,
			ClassName: sess.ClassName,
			Position:  sess.ContentPosition,
			Title:     sess.ContentTitle,
		}
	}
	return lesson, nil
}
