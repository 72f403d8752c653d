package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/quizdesk/quizdesk-backend/internal/config"
	"github.com/quizdesk/quizdesk-backend/internal/model"
	"github.com/quizdesk/quizdesk-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory implementation of SessionStore, QuestionStore,
// and CacheStore, mirroring the SQL predicates of the real repositories.
type fakeBackend struct {
	group     *model.QuestionGroup
	questions []model.Question
	answers   map[uuid.UUID][]model.Answer

	sessions map[uuid.UUID]*model.ExamSession
	slots    []*model.QuestionSlot
	nextSlot int64

	cacheData map[string][]byte
	queued    []string

	payloadErr error // returned by GroupPayloads when set
}

// newFakeBackend seeds an active group with n questions of three answers
// each; the first answer of every question is the correct one.
func newFakeBackend(n int) *fakeBackend {
	fb := &fakeBackend{
		group: &model.QuestionGroup{
			ID:        uuid.New(),
			Name:      "fake group",
			Active:    true,
			CreatedAt: time.Now(),
		},
		answers:   make(map[uuid.UUID][]model.Answer),
		sessions:  make(map[uuid.UUID]*model.ExamSession),
		cacheData: make(map[string][]byte),
	}
	for i := 0; i < n; i++ {
		fb.addQuestion(fmt.Sprintf("question %d", i+1), true)
	}
	return fb
}

func (fb *fakeBackend) addQuestion(text string, active bool) model.Question {
	q := model.Question{
		ID:           uuid.New(),
		GroupID:      fb.group.ID,
		QuestionText: text,
		Active:       active,
		Position:     len(fb.questions) + 1,
	}
	fb.questions = append(fb.questions, q)
	for j := 0; j < 3; j++ {
		fb.answers[q.ID] = append(fb.answers[q.ID], model.Answer{
			ID:         uuid.New(),
			QuestionID: q.ID,
			AnswerText: fmt.Sprintf("answer %d", j+1),
			IsCorrect:  j == 0,
		})
	}
	return q
}

func (fb *fakeBackend) correctAnswer(questionID uuid.UUID) model.Answer {
	return fb.answers[questionID][0]
}

func (fb *fakeBackend) incorrectAnswer(questionID uuid.UUID) model.Answer {
	return fb.answers[questionID][1]
}

// ─── SessionStore ──────────────────────────────────────────────────────────

func (fb *fakeBackend) GetByID(_ context.Context, id uuid.UUID) (*model.ExamSession, error) {
	s, ok := fb.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (fb *fakeBackend) GetByGroupAndUser(_ context.Context, groupID uuid.UUID, userID int) (*model.ExamSession, error) {
	for _, s := range fb.sessions {
		if s.GroupID == groupID && s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (fb *fakeBackend) Create(_ context.Context, s *model.ExamSession) error {
	for _, existing := range fb.sessions {
		if existing.GroupID == s.GroupID && existing.UserID == s.UserID {
			return pgx.ErrNoRows
		}
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	cp := *s
	fb.sessions[s.ID] = &cp
	return nil
}

func (fb *fakeBackend) Start(_ context.Context, sessionID uuid.UUID, startedAt time.Time, questionIDs []uuid.UUID) (bool, error) {
	s, ok := fb.sessions[sessionID]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if s.StartedAt != nil {
		return false, nil
	}
	s.StartedAt = &startedAt
	for _, qID := range questionIDs {
		fb.nextSlot++
		fb.slots = append(fb.slots, &model.QuestionSlot{
			ID:         fb.nextSlot,
			SessionID:  sessionID,
			QuestionID: qID,
		})
	}
	return true, nil
}

func (fb *fakeBackend) DispenseNext(_ context.Context, sessionID uuid.UUID, sentAt, deadlineAt time.Time) (*model.QuestionSlot, error) {
	for _, slot := range fb.slots {
		if slot.SessionID == sessionID && slot.SentAt == nil {
			sent, deadline := sentAt, deadlineAt
			slot.SentAt = &sent
			slot.DeadlineAt = &deadline
			cp := *slot
			return &cp, nil
		}
	}
	return nil, nil
}

func (fb *fakeBackend) SlotByQuestion(_ context.Context, sessionID, questionID uuid.UUID) (*model.QuestionSlot, error) {
	for _, slot := range fb.slots {
		if slot.SessionID == sessionID && slot.QuestionID == questionID {
			cp := *slot
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (fb *fakeBackend) MarkAnswered(_ context.Context, slotID int64, answerID uuid.UUID, isCorrect bool, point int, answeredAt time.Time) (bool, error) {
	for _, slot := range fb.slots {
		if slot.ID != slotID {
			continue
		}
		if slot.SentAt == nil || slot.AnsweredAt != nil || !slot.DeadlineAt.After(answeredAt) {
			return false, nil
		}
		at := answeredAt
		aID := answerID
		slot.AnsweredAt = &at
		slot.AnswerID = &aID
		slot.IsCorrect = isCorrect
		slot.Point = point
		return true, nil
	}
	return false, nil
}

func (fb *fakeBackend) Finish(_ context.Context, sessionID uuid.UUID, endedAt time.Time) error {
	s, ok := fb.sessions[sessionID]
	if !ok {
		return pgx.ErrNoRows
	}
	if s.EndedAt == nil {
		at := endedAt
		s.EndedAt = &at
	}
	return nil
}

func (fb *fakeBackend) CountSlots(_ context.Context, sessionID uuid.UUID) (repository.SlotCounts, error) {
	var c repository.SlotCounts
	for _, slot := range fb.slots {
		if slot.SessionID != sessionID {
			continue
		}
		c.Total++
		if slot.AnsweredAt != nil {
			c.Answered++
		}
		if slot.SentAt == nil {
			c.Undispensed++
		}
	}
	return c, nil
}

func (fb *fakeBackend) ListSlots(_ context.Context, sessionID uuid.UUID) ([]model.QuestionSlot, error) {
	var out []model.QuestionSlot
	for _, slot := range fb.slots {
		if slot.SessionID == sessionID {
			out = append(out, *slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (fb *fakeBackend) ListByUser(_ context.Context, userID, page, perPage int) ([]model.SessionOverview, int, error) {
	var out []model.SessionOverview
	for _, s := range fb.sessions {
		if s.UserID != userID {
			continue
		}
		o := model.SessionOverview{ID: s.ID, GroupID: s.GroupID, GroupName: fb.group.Name, StartedAt: s.StartedAt, EndedAt: s.EndedAt}
		for _, slot := range fb.slots {
			if slot.SessionID != s.ID {
				continue
			}
			o.TotalCount++
			if slot.AnsweredAt != nil {
				o.AnsweredCount++
			}
			if slot.IsCorrect {
				o.CorrectCount++
			} else {
				o.IncorrectCount++
			}
			o.Point += slot.Point
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

// ─── QuestionStore ─────────────────────────────────────────────────────────

func (fb *fakeBackend) GetGroup(_ context.Context, id uuid.UUID) (*model.QuestionGroup, error) {
	if fb.group.ID != id {
		return nil, pgx.ErrNoRows
	}
	cp := *fb.group
	return &cp, nil
}

func (fb *fakeBackend) ListActiveIDsByGroup(_ context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, q := range fb.questions {
		if q.GroupID == groupID && q.Active {
			ids = append(ids, q.ID)
		}
	}
	return ids, nil
}

func (fb *fakeBackend) GroupPayloads(_ context.Context, groupID uuid.UUID) ([]model.QuestionPayload, error) {
	if fb.payloadErr != nil {
		return nil, fb.payloadErr
	}
	var payloads []model.QuestionPayload
	for _, q := range fb.questions {
		if q.GroupID != groupID {
			continue
		}
		p := model.QuestionPayload{ID: q.ID, QuestionText: q.QuestionText}
		for _, a := range fb.answers[q.ID] {
			p.Options = append(p.Options, model.AnswerOption{ID: a.ID, AnswerText: a.AnswerText})
		}
		payloads = append(payloads, p)
	}
	return payloads, nil
}

func (fb *fakeBackend) GetAnswer(_ context.Context, questionID, answerID uuid.UUID) (*model.Answer, error) {
	for _, a := range fb.answers[questionID] {
		if a.ID == answerID {
			cp := a
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// ─── CacheStore ────────────────────────────────────────────────────────────

func (fb *fakeBackend) GetJSON(_ context.Context, key string, dest interface{}) error {
	raw, ok := fb.cacheData[key]
	if !ok {
		return redis.Nil
	}
	return json.Unmarshal(raw, dest)
}

func (fb *fakeBackend) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	fb.cacheData[key] = raw
	return nil
}

func (fb *fakeBackend) Enqueue(_ context.Context, _ string, value string) error {
	fb.queued = append(fb.queued, value)
	return nil
}

// setCache seeds a cache entry directly, bypassing the service.
func (fb *fakeBackend) setCache(t *testing.T, key string, value interface{}) {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	fb.cacheData[key] = raw
}

// ─── Harness ───────────────────────────────────────────────────────────────

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

const (
	ownerID    = 7
	strangerID = 8
)

func newTestService(fb *fakeBackend) (*ExamService, *fakeClock) {
	svc := NewExamService(fb, fb, fb, zerolog.Nop(), 180*time.Second)
	clk := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc.now = clk.Now
	return svc, clk
}

// assignAndStart runs the assign+start preamble and returns the session ID.
func assignAndStart(t *testing.T, svc *ExamService, fb *fakeBackend) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	session, err := svc.Assign(ctx, fb.group.ID, ownerID)
	require.NoError(t, err)

	count, err := svc.Start(ctx, session.ID, ownerID)
	require.NoError(t, err)
	require.Equal(t, len(fb.questions), count)

	return session.ID
}

// ─── Tests ─────────────────────────────────────────────────────────────────

func TestAssign_Idempotent(t *testing.T) {
	fb := newFakeBackend(2)
	svc, _ := newTestService(fb)
	ctx := context.Background()

	first, err := svc.Assign(ctx, fb.group.ID, ownerID)
	require.NoError(t, err)

	second, err := svc.Assign(ctx, fb.group.ID, ownerID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Nil(t, second.StartedAt)
}

func TestAssign_InactiveGroup(t *testing.T) {
	fb := newFakeBackend(2)
	fb.group.Active = false
	svc, _ := newTestService(fb)

	_, err := svc.Assign(context.Background(), fb.group.ID, ownerID)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestStart_CannotStartTwice(t *testing.T) {
	fb := newFakeBackend(3)
	svc, _ := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)

	_, err := svc.Start(context.Background(), sessionID, ownerID)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestStart_NoActiveQuestions(t *testing.T) {
	fb := newFakeBackend(0)
	fb.addQuestion("inactive only", false)
	svc, _ := newTestService(fb)
	ctx := context.Background()

	session, err := svc.Assign(ctx, fb.group.ID, ownerID)
	require.NoError(t, err)

	_, err = svc.Start(ctx, session.ID, ownerID)
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestStart_SnapshotIgnoresLaterGroupChanges(t *testing.T) {
	fb := newFakeBackend(3)
	svc, _ := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)

	// Questions added after start must not appear in the session.
	fb.addQuestion("added later", true)

	counts, err := fb.CountSlots(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Total)
}

func TestNextQuestion_SingleDispenseInvariant(t *testing.T) {
	const n = 4
	fb := newFakeBackend(n)
	svc, _ := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)
	ctx := context.Background()

	seen := make(map[uuid.UUID]bool)
	for i := 0; i < n; i++ {
		q, err := svc.NextQuestion(ctx, sessionID, ownerID)
		require.NoError(t, err)
		require.NotNil(t, q)
		assert.False(t, seen[q.ID], "question dispensed twice")
		seen[q.ID] = true
	}
	assert.Len(t, seen, n)

	// The (n+1)th call auto-finishes and returns nil.
	q, err := svc.NextQuestion(ctx, sessionID, ownerID)
	require.NoError(t, err)
	assert.Nil(t, q)

	session := fb.sessions[sessionID]
	assert.NotNil(t, session.EndedAt)
	assert.Contains(t, fb.queued, sessionID.String())
}

func TestNextQuestion_PayloadFailureLeavesSlotUndispensed(t *testing.T) {
	fb := newFakeBackend(2)
	svc, _ := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)
	ctx := context.Background()

	loadErr := errors.New("connection reset")
	fb.payloadErr = loadErr

	_, err := svc.NextQuestion(ctx, sessionID, ownerID)
	require.ErrorIs(t, err, loadErr)

	// The failed call must not have consumed a slot.
	counts, err := fb.CountSlots(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Undispensed)

	// Once the load works again every question is still deliverable.
	fb.payloadErr = nil
	delivered := 0
	for {
		q, err := svc.NextQuestion(ctx, sessionID, ownerID)
		require.NoError(t, err)
		if q == nil {
			break
		}
		delivered++
	}
	assert.Equal(t, 2, delivered)
}

func TestNextQuestion_StaleCacheRefetchesNewQuestion(t *testing.T) {
	fb := newFakeBackend(1)
	svc, _ := newTestService(fb)
	ctx := context.Background()
	cacheKey := config.CacheKey.GroupPayloadKey(fb.group.ID.String())

	// Warm the cache, then grow the group before the session starts.
	stale, err := fb.GroupPayloads(ctx, fb.group.ID)
	require.NoError(t, err)
	fb.setCache(t, cacheKey, stale)

	added := fb.addQuestion("added after cache warm", true)

	sessionID := assignAndStart(t, svc, fb)

	dispensed := make(map[uuid.UUID]bool)
	for i := 0; i < 2; i++ {
		q, err := svc.NextQuestion(ctx, sessionID, ownerID)
		require.NoError(t, err)
		require.NotNil(t, q)
		dispensed[q.ID] = true
	}
	assert.True(t, dispensed[added.ID], "question absent from the stale cache was never delivered")

	// The fallback re-warmed the cache with the full set.
	var rewarmed []model.QuestionPayload
	require.NoError(t, fb.GetJSON(ctx, cacheKey, &rewarmed))
	assert.Len(t, rewarmed, 2)
}

func TestNextQuestion_StripsCorrectness(t *testing.T) {
	fb := newFakeBackend(1)
	svc, _ := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)

	q, err := svc.NextQuestion(context.Background(), sessionID, ownerID)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Len(t, q.Options, 3)

	// Options expose IDs and text only; correctness lives in model.Answer.
	ids := make(map[uuid.UUID]bool)
	for _, opt := range q.Options {
		ids[opt.ID] = true
	}
	for _, a := range fb.answers[q.ID] {
		assert.True(t, ids[a.ID])
	}
}

func TestChooseAnswer_DeadlineEnforcement(t *testing.T) {
	fb := newFakeBackend(2)
	svc, clk := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)
	ctx := context.Background()

	q1, err := svc.NextQuestion(ctx, sessionID, ownerID)
	require.NoError(t, err)

	// Inside the 180s window: accepted.
	clk.Advance(179 * time.Second)
	correct, err := svc.ChooseAnswer(ctx, sessionID, ownerID, q1.ID, fb.correctAnswer(q1.ID).ID)
	require.NoError(t, err)
	assert.True(t, correct)

	q2, err := svc.NextQuestion(ctx, sessionID, ownerID)
	require.NoError(t, err)

	// Past the window plus the one-second grace: forfeited.
	clk.Advance(181 * time.Second)
	_, err = svc.ChooseAnswer(ctx, sessionID, ownerID, q2.ID, fb.correctAnswer(q2.ID).ID)
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestChooseAnswer_NoDoubleAnswer(t *testing.T) {
	fb := newFakeBackend(2)
	svc, _ := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)
	ctx := context.Background()

	q, err := svc.NextQuestion(ctx, sessionID, ownerID)
	require.NoError(t, err)

	correct, err := svc.ChooseAnswer(ctx, sessionID, ownerID, q.ID, fb.incorrectAnswer(q.ID).ID)
	require.NoError(t, err)
	assert.False(t, correct)

	_, err = svc.ChooseAnswer(ctx, sessionID, ownerID, q.ID, fb.correctAnswer(q.ID).ID)
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestChooseAnswer_UndispensedQuestion(t *testing.T) {
	fb := newFakeBackend(2)
	svc, _ := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)
	ctx := context.Background()

	q1, err := svc.NextQuestion(ctx, sessionID, ownerID)
	require.NoError(t, err)

	// The second question exists as a slot but has not been dispensed.
	var other uuid.UUID
	for _, q := range fb.questions {
		if q.ID != q1.ID {
			other = q.ID
		}
	}

	_, err = svc.ChooseAnswer(ctx, sessionID, ownerID, other, fb.correctAnswer(other).ID)
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestChooseAnswer_AnswerNotFound(t *testing.T) {
	fb := newFakeBackend(2)
	svc, _ := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)
	ctx := context.Background()

	q, err := svc.NextQuestion(ctx, sessionID, ownerID)
	require.NoError(t, err)

	// An answer belonging to a different question is rejected.
	var other uuid.UUID
	for _, qq := range fb.questions {
		if qq.ID != q.ID {
			other = qq.ID
		}
	}

	_, err = svc.ChooseAnswer(ctx, sessionID, ownerID, q.ID, fb.correctAnswer(other).ID)
	assert.ErrorIs(t, err, ErrAnswerNotFound)

	_, err = svc.ChooseAnswer(ctx, sessionID, ownerID, q.ID, uuid.New())
	assert.ErrorIs(t, err, ErrAnswerNotFound)
}

func TestExpiredSlotIsForfeited(t *testing.T) {
	fb := newFakeBackend(2)
	svc, clk := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)
	ctx := context.Background()

	q1, err := svc.NextQuestion(ctx, sessionID, ownerID)
	require.NoError(t, err)

	// Let the first question expire unanswered.
	clk.Advance(5 * time.Minute)

	// The next dispense moves on; the expired slot is never re-dispensed.
	q2, err := svc.NextQuestion(ctx, sessionID, ownerID)
	require.NoError(t, err)
	require.NotNil(t, q2)
	assert.NotEqual(t, q1.ID, q2.ID)

	_, err = svc.ChooseAnswer(ctx, sessionID, ownerID, q1.ID, fb.correctAnswer(q1.ID).ID)
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestOwnership(t *testing.T) {
	fb := newFakeBackend(2)
	svc, _ := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)
	ctx := context.Background()

	q, err := svc.NextQuestion(ctx, sessionID, ownerID)
	require.NoError(t, err)

	_, err = svc.Start(ctx, sessionID, strangerID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.NextQuestion(ctx, sessionID, strangerID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.ChooseAnswer(ctx, sessionID, strangerID, q.ID, fb.correctAnswer(q.ID).ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	err = svc.Finish(ctx, sessionID, strangerID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.Result(ctx, sessionID, strangerID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestLifecycleGuards(t *testing.T) {
	fb := newFakeBackend(1)
	svc, _ := newTestService(fb)
	ctx := context.Background()

	session, err := svc.Assign(ctx, fb.group.ID, ownerID)
	require.NoError(t, err)

	// Before start.
	_, err = svc.NextQuestion(ctx, session.ID, ownerID)
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = svc.ChooseAnswer(ctx, session.ID, ownerID, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotStarted)

	// Drive to completion.
	_, err = svc.Start(ctx, session.ID, ownerID)
	require.NoError(t, err)
	q, err := svc.NextQuestion(ctx, session.ID, ownerID)
	require.NoError(t, err)
	_, err = svc.ChooseAnswer(ctx, session.ID, ownerID, q.ID, fb.correctAnswer(q.ID).ID)
	require.NoError(t, err)
	q, err = svc.NextQuestion(ctx, session.ID, ownerID)
	require.NoError(t, err)
	require.Nil(t, q)

	// After finish.
	_, err = svc.NextQuestion(ctx, session.ID, ownerID)
	assert.ErrorIs(t, err, ErrAlreadyFinished)
	_, err = svc.ChooseAnswer(ctx, session.ID, ownerID, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrAlreadyFinished)
}

func TestFinish_Idempotent(t *testing.T) {
	fb := newFakeBackend(1)
	svc, clk := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)
	ctx := context.Background()

	require.NoError(t, svc.Finish(ctx, sessionID, ownerID))
	endedAt := fb.sessions[sessionID].EndedAt
	require.NotNil(t, endedAt)
	first := *endedAt

	clk.Advance(time.Minute)
	require.NoError(t, svc.Finish(ctx, sessionID, ownerID))
	assert.Equal(t, first, *fb.sessions[sessionID].EndedAt)
}

func TestPercent_Monotonic(t *testing.T) {
	const n = 5
	fb := newFakeBackend(n)
	svc, _ := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)
	ctx := context.Background()

	prev := 0
	for i := 0; i < n; i++ {
		q, err := svc.NextQuestion(ctx, sessionID, ownerID)
		require.NoError(t, err)

		_, err = svc.ChooseAnswer(ctx, sessionID, ownerID, q.ID, fb.correctAnswer(q.ID).ID)
		require.NoError(t, err)

		percent, err := svc.Percent(ctx, sessionID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, percent, prev)
		prev = percent
	}
	assert.Equal(t, 100, prev)
}

func TestResult_NilWhileUnfinished(t *testing.T) {
	fb := newFakeBackend(2)
	svc, _ := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)
	ctx := context.Background()

	_, err := svc.NextQuestion(ctx, sessionID, ownerID)
	require.NoError(t, err)

	result, err := svc.Result(ctx, sessionID, ownerID)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestResult_AfterCompletion(t *testing.T) {
	fb := newFakeBackend(3)
	svc, _ := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)
	ctx := context.Background()

	// Answer the first correctly, the second wrong, skip the third.
	q, err := svc.NextQuestion(ctx, sessionID, ownerID)
	require.NoError(t, err)
	_, err = svc.ChooseAnswer(ctx, sessionID, ownerID, q.ID, fb.correctAnswer(q.ID).ID)
	require.NoError(t, err)

	q, err = svc.NextQuestion(ctx, sessionID, ownerID)
	require.NoError(t, err)
	_, err = svc.ChooseAnswer(ctx, sessionID, ownerID, q.ID, fb.incorrectAnswer(q.ID).ID)
	require.NoError(t, err)

	_, err = svc.NextQuestion(ctx, sessionID, ownerID)
	require.NoError(t, err)
	q, err = svc.NextQuestion(ctx, sessionID, ownerID)
	require.NoError(t, err)
	require.Nil(t, q)

	result, err := svc.Result(ctx, sessionID, ownerID)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 2, result.Incorrect)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 33, result.SuccessRate)
	assert.Equal(t, 1, result.Point)
}

func TestResult_ServedFromCache(t *testing.T) {
	fb := newFakeBackend(1)
	svc, _ := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)
	ctx := context.Background()

	canned := model.ExamSummary{
		Correct:        42,
		Total:          42,
		SuccessRate:    100,
		Point:          42,
		ElapsedSeconds: 420,
		Elapsed:        "07:00",
	}
	fb.setCache(t, config.CacheKey.SessionResultKey(sessionID.String()), canned)

	result, err := svc.Result(ctx, sessionID, ownerID)
	require.NoError(t, err)
	require.NotNil(t, result)
	// The cached summary comes back as-is; the slots are never recomputed.
	assert.Equal(t, canned, *result)
}

func TestHasNextQuestion(t *testing.T) {
	fb := newFakeBackend(1)
	svc, _ := newTestService(fb)
	sessionID := assignAndStart(t, svc, fb)
	ctx := context.Background()

	has, err := svc.HasNextQuestion(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, has)

	_, err = svc.NextQuestion(ctx, sessionID, ownerID)
	require.NoError(t, err)

	has, err = svc.HasNextQuestion(ctx, sessionID)
	require.NoError(t, err)
	assert.False(t, has)
}
