package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizdesk/quizdesk-backend/internal/model"
)

// ExamSessionRepository handles exam session and question slot data access.
// Mutations that touch more than one row run inside a transaction; dispensing
// additionally locks the session row so concurrent calls serialize.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

// GetByID retrieves a session by its ID.
func (r *ExamSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, group_id, user_id, started_at, ended_at, created_at
		 FROM exam_sessions
		 WHERE id = $1`, id,
	).Scan(&s.ID, &s.GroupID, &s.UserID, &s.StartedAt, &s.EndedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByGroupAndUser retrieves a session for a specific group-user combination.
func (r *ExamSessionRepository) GetByGroupAndUser(ctx context.Context, groupID uuid.UUID, userID int) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, group_id, user_id, started_at, ended_at, created_at
		 FROM exam_sessions
		 WHERE group_id = $1 AND user_id = $2`, groupID, userID,
	).Scan(&s.ID, &s.GroupID, &s.UserID, &s.StartedAt, &s.EndedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new unstarted session for a group-user pairing. Returns
// pgx.ErrNoRows when a session for the pairing already exists.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (group_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (group_id, user_id) DO NOTHING
		 RETURNING id, created_at`,
		s.GroupID, s.UserID,
	).Scan(&s.ID, &s.CreatedAt)
}

// Start stamps started_at and snapshots one slot per question, in the given
// order, atomically. Returns false without mutating anything if the session
// was already started (the guard is the started_at IS NULL predicate).
func (r *ExamSessionRepository) Start(ctx context.Context, sessionID uuid.UUID, startedAt time.Time, questionIDs []uuid.UUID) (bool, error) {
	started := false
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE exam_sessions SET started_at = $2
			 WHERE id = $1 AND started_at IS NULL`,
			sessionID, startedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO exam_slots (session_id, question_id)
			 SELECT $1, q.id
			 FROM UNNEST($2::uuid[]) WITH ORDINALITY AS q (id, ord)
			 ORDER BY q.ord`,
			sessionID, questionIDs)
		if err != nil {
			return err
		}

		started = true
		return nil
	})
	return started, err
}

// DispenseNext marks the oldest undispensed slot as sent and returns it.
// Returns (nil, nil) when every slot has been dispensed. The session row is
// locked for the duration of the transaction so two concurrent calls cannot
// dispense two slots.
func (r *ExamSessionRepository) DispenseNext(ctx context.Context, sessionID uuid.UUID, sentAt, deadlineAt time.Time) (*model.QuestionSlot, error) {
	var slot *model.QuestionSlot
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`SELECT id FROM exam_sessions WHERE id = $1 FOR UPDATE`, sessionID); err != nil {
			return err
		}

		s := &model.QuestionSlot{}
		err := tx.QueryRow(ctx,
			`SELECT id, session_id, question_id
			 FROM exam_slots
			 WHERE session_id = $1 AND sent_at IS NULL
			 ORDER BY id
			 LIMIT 1`, sessionID,
		).Scan(&s.ID, &s.SessionID, &s.QuestionID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE exam_slots SET sent_at = $2, deadline_at = $3 WHERE id = $1`,
			s.ID, sentAt, deadlineAt); err != nil {
			return err
		}

		s.SentAt = &sentAt
		s.DeadlineAt = &deadlineAt
		slot = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// SlotByQuestion retrieves the slot of a session for a given question.
func (r *ExamSessionRepository) SlotByQuestion(ctx context.Context, sessionID, questionID uuid.UUID) (*model.QuestionSlot, error) {
	s := &model.QuestionSlot{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, question_id, sent_at, deadline_at, answered_at, answer_id, is_correct, point
		 FROM exam_slots
		 WHERE session_id = $1 AND question_id = $2`, sessionID, questionID,
	).Scan(&s.ID, &s.SessionID, &s.QuestionID, &s.SentAt, &s.DeadlineAt, &s.AnsweredAt, &s.AnswerID, &s.IsCorrect, &s.Point)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// MarkAnswered records an answer on a slot. The predicates repeat the
// answerability checks so a racing dispense or duplicate submit loses cleanly:
// false means the slot was no longer answerable at answeredAt.
func (r *ExamSessionRepository) MarkAnswered(ctx context.Context, slotID int64, answerID uuid.UUID, isCorrect bool, point int, answeredAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_slots
		 SET answer_id = $2, answered_at = $3, is_correct = $4, point = $5
		 WHERE id = $1
		   AND sent_at IS NOT NULL
		   AND answered_at IS NULL
		   AND deadline_at > $3`,
		slotID, answerID, answeredAt, isCorrect, point)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Finish stamps ended_at if it is not already set. Re-finishing is a no-op.
func (r *ExamSessionRepository) Finish(ctx context.Context, sessionID uuid.UUID, endedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions SET ended_at = $2
		 WHERE id = $1 AND ended_at IS NULL`,
		sessionID, endedAt)
	return err
}

// SlotCounts holds aggregate slot counters for one session.
type SlotCounts struct {
	Total       int
	Answered    int
	Undispensed int
}

// CountSlots returns the slot counters for a session in one query.
func (r *ExamSessionRepository) CountSlots(ctx context.Context, sessionID uuid.UUID) (SlotCounts, error) {
	var c SlotCounts
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(answered_at),
		        COUNT(*) FILTER (WHERE sent_at IS NULL)
		 FROM exam_slots
		 WHERE session_id = $1`, sessionID,
	).Scan(&c.Total, &c.Answered, &c.Undispensed)
	return c, err
}

// ListSlots retrieves all slots of a session ordered by slot ID.
func (r *ExamSessionRepository) ListSlots(ctx context.Context, sessionID uuid.UUID) ([]model.QuestionSlot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, question_id, sent_at, deadline_at, answered_at, answer_id, is_correct, point
		 FROM exam_slots
		 WHERE session_id = $1
		 ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []model.QuestionSlot
	for rows.Next() {
		var s model.QuestionSlot
		if err := rows.Scan(&s.ID, &s.SessionID, &s.QuestionID, &s.SentAt, &s.DeadlineAt, &s.AnsweredAt, &s.AnswerID, &s.IsCorrect, &s.Point); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// ListByUser retrieves paginated session overviews for a user, newest first.
// The incorrect counter scopes on is_correct = false only, so never-answered
// slots count as incorrect alongside wrong answers.
func (r *ExamSessionRepository) ListByUser(ctx context.Context, userID, page, perPage int) ([]model.SessionOverview, int, error) {
	offset := (page - 1) * perPage

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_sessions WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT es.id, es.group_id, g.name, es.started_at, es.ended_at,
		        COUNT(s.id),
		        COUNT(s.answered_at),
		        COUNT(s.id) FILTER (WHERE s.is_correct),
		        COUNT(s.id) FILTER (WHERE NOT s.is_correct),
		        COALESCE(SUM(s.point), 0)
		 FROM exam_sessions es
		 JOIN question_groups g ON g.id = es.group_id
		 LEFT JOIN exam_slots s ON s.session_id = es.id
		 WHERE es.user_id = $1
		 GROUP BY es.id, g.name
		 ORDER BY es.created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var overviews []model.SessionOverview
	for rows.Next() {
		var o model.SessionOverview
		if err := rows.Scan(&o.ID, &o.GroupID, &o.GroupName, &o.StartedAt, &o.EndedAt,
			&o.TotalCount, &o.AnsweredCount, &o.CorrectCount, &o.IncorrectCount, &o.Point); err != nil {
			return nil, 0, err
		}
		overviews = append(overviews, o)
	}
	return overviews, total, rows.Err()
}
