package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/quizdesk/quizdesk-backend/internal/config"
	"github.com/quizdesk/quizdesk-backend/internal/model"
	"github.com/quizdesk/quizdesk-backend/internal/repository"
	"github.com/quizdesk/quizdesk-backend/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrAccessDenied     = errors.New("session does not belong to the caller")
	ErrSessionNotFound  = errors.New("exam session not found")
	ErrGroupNotFound    = errors.New("question group not found or inactive")
	ErrAlreadyStarted   = errors.New("exam session already started")
	ErrNotStarted       = errors.New("exam session not started")
	ErrAlreadyFinished  = errors.New("exam session already finished")
	ErrNoQuestions      = errors.New("question group has no active questions")
	ErrSlotNotAvailable = errors.New("question slot not available for answering")
	ErrAnswerNotFound   = errors.New("answer does not belong to the question")
)

// deadlineGrace is added on top of the answer window at dispense time to
// absorb network latency between server stamp and client render.
const deadlineGrace = time.Second

// SessionStore is the persistence surface ExamService drives sessions through.
// Implemented by repository.ExamSessionRepository.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error)
	GetByGroupAndUser(ctx context.Context, groupID uuid.UUID, userID int) (*model.ExamSession, error)
	Create(ctx context.Context, s *model.ExamSession) error
	Start(ctx context.Context, sessionID uuid.UUID, startedAt time.Time, questionIDs []uuid.UUID) (bool, error)
	DispenseNext(ctx context.Context, sessionID uuid.UUID, sentAt, deadlineAt time.Time) (*model.QuestionSlot, error)
	SlotByQuestion(ctx context.Context, sessionID, questionID uuid.UUID) (*model.QuestionSlot, error)
	MarkAnswered(ctx context.Context, slotID int64, answerID uuid.UUID, isCorrect bool, point int, answeredAt time.Time) (bool, error)
	Finish(ctx context.Context, sessionID uuid.UUID, endedAt time.Time) error
	CountSlots(ctx context.Context, sessionID uuid.UUID) (repository.SlotCounts, error)
	ListSlots(ctx context.Context, sessionID uuid.UUID) ([]model.QuestionSlot, error)
	ListByUser(ctx context.Context, userID, page, perPage int) ([]model.SessionOverview, int, error)
}

// QuestionStore is the read-only question surface. Implemented by
// repository.QuestionRepository.
type QuestionStore interface {
	GetGroup(ctx context.Context, id uuid.UUID) (*model.QuestionGroup, error)
	ListActiveIDsByGroup(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
	GroupPayloads(ctx context.Context, groupID uuid.UUID) ([]model.QuestionPayload, error)
	GetAnswer(ctx context.Context, questionID, answerID uuid.UUID) (*model.Answer, error)
}

// CacheStore is the Redis surface used for payload/result caching and the
// summary queue. Implemented by repository.RedisCache. Misses are redis.Nil.
type CacheStore interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Enqueue(ctx context.Context, key, value string) error
}

// ExamService drives one exam attempt from assignment to finish, enforcing
// the ownership, ordering, and deadline rules. It is stateless: the calling
// user is a parameter on every operation.
type ExamService struct {
	sessions  SessionStore
	questions QuestionStore
	cache     CacheStore
	log       zerolog.Logger
	window    time.Duration
	now       func() time.Time
}

// NewExamService creates a new ExamService. window is the per-question
// answer deadline window (the one-second grace is added internally).
func NewExamService(
	sessions SessionStore,
	questions QuestionStore,
	cache CacheStore,
	log zerolog.Logger,
	window time.Duration,
) *ExamService {
	return &ExamService{
		sessions:  sessions,
		questions: questions,
		cache:     cache,
		log:       log.With().Str("component", "exam_service").Logger(),
		window:    window,
		now:       time.Now,
	}
}

// Assign creates an unstarted session pairing the user with a question group.
// Idempotent: a second assign for the same pairing returns the existing
// session, including the case of two concurrent assigns.
func (s *ExamService) Assign(ctx context.Context, groupID uuid.UUID, userID int) (*model.ExamSession, error) {
	group, err := s.questions.GetGroup(ctx, groupID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	if !group.Active {
		return nil, ErrGroupNotFound
	}

	session := &model.ExamSession{GroupID: groupID, UserID: userID}
	err = s.sessions.Create(ctx, session)
	if errors.Is(err, pgx.ErrNoRows) {
		// Pairing already exists (earlier assign or concurrent request).
		return s.sessions.GetByGroupAndUser(ctx, groupID, userID)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Start begins a session: stamps started_at and snapshots one slot per
// active question of the group, question ID ascending. Later changes to the
// group do not affect an in-progress session. Returns the snapshot size.
func (s *ExamService) Start(ctx context.Context, sessionID uuid.UUID, userID int) (int, error) {
	session, err := s.getOwned(ctx, sessionID, userID)
	if err != nil {
		return 0, err
	}
	if session.Started() {
		return 0, ErrAlreadyStarted
	}

	questionIDs, err := s.questions.ListActiveIDsByGroup(ctx, session.GroupID)
	if err != nil {
		return 0, err
	}
	if len(questionIDs) == 0 {
		return 0, ErrNoQuestions
	}

	started, err := s.sessions.Start(ctx, sessionID, s.now(), questionIDs)
	if err != nil {
		return 0, err
	}
	if !started {
		// Lost a race against a concurrent start.
		return 0, ErrAlreadyStarted
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Int("questions", len(questionIDs)).
		Msg("Exam started")
	return len(questionIDs), nil
}

// NextQuestion dispenses the oldest undispensed slot with a fresh deadline
// and returns its question, answer options in randomized order. When no
// undispensed slot remains it finishes the session and returns nil. Exactly
// one slot transitions per call.
//
// The group payloads are resolved before the dispense so a cache or database
// failure surfaces without consuming a slot.
func (s *ExamService) NextQuestion(ctx context.Context, sessionID uuid.UUID, userID int) (*model.QuestionPayload, error) {
	session, err := s.getOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := checkExamPermission(session); err != nil {
		return nil, err
	}

	payloads, err := s.groupPayloads(ctx, session.GroupID)
	if err != nil {
		return nil, err
	}

	sentAt := s.now()
	slot, err := s.sessions.DispenseNext(ctx, sessionID, sentAt, sentAt.Add(s.window+deadlineGrace))
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, s.finish(ctx, session)
	}

	payload := pickPayload(payloads, slot.QuestionID)
	if payload == nil {
		// The cached set predates this question; rebuild it from PostgreSQL.
		payloads, err = s.refreshGroupPayloads(ctx, session.GroupID)
		if err != nil {
			return nil, err
		}
		payload = pickPayload(payloads, slot.QuestionID)
	}
	if payload == nil {
		return nil, ErrSlotNotAvailable
	}

	shuffleOptions(payload.Options)
	return payload, nil
}

// ChooseAnswer records an answer on the slot matching the question, provided
// the slot is dispensed, unanswered, and inside its deadline window. Expired
// or already-answered slots are gone for good. Returns whether the chosen
// answer was correct. Does not advance to the next question.
func (s *ExamService) ChooseAnswer(ctx context.Context, sessionID uuid.UUID, userID int, questionID, answerID uuid.UUID) (bool, error) {
	session, err := s.getOwned(ctx, sessionID, userID)
	if err != nil {
		return false, err
	}
	if err := checkExamPermission(session); err != nil {
		return false, err
	}

	slot, err := s.sessions.SlotByQuestion(ctx, sessionID, questionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrSlotNotAvailable
	}
	if err != nil {
		return false, err
	}

	answeredAt := s.now()
	if !slot.Answerable(answeredAt) {
		return false, ErrSlotNotAvailable
	}

	answer, err := s.questions.GetAnswer(ctx, questionID, answerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrAnswerNotFound
	}
	if err != nil {
		return false, err
	}

	point := 0
	if answer.IsCorrect {
		point = 1
	}

	recorded, err := s.sessions.MarkAnswered(ctx, slot.ID, answer.ID, answer.IsCorrect, point, answeredAt)
	if err != nil {
		return false, err
	}
	if !recorded {
		// The slot stopped being answerable between the read and the write.
		return false, ErrSlotNotAvailable
	}
	return answer.IsCorrect, nil
}

// Finish stamps ended_at. Finishing an already-finished session is a no-op.
func (s *ExamService) Finish(ctx context.Context, sessionID uuid.UUID, userID int) error {
	session, err := s.getOwned(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if !session.Started() {
		return ErrNotStarted
	}
	if session.Ended() {
		return nil
	}
	return s.finish(ctx, session)
}

// finish persists ended_at and queues the session for summary caching.
func (s *ExamService) finish(ctx context.Context, session *model.ExamSession) error {
	if err := s.sessions.Finish(ctx, session.ID, s.now()); err != nil {
		return err
	}
	if err := s.cache.Enqueue(ctx, config.WorkerKey.SummaryQueue, session.ID.String()); err != nil {
		// The result read path recomputes on cache miss, so a lost job only
		// costs latency.
		s.log.Warn().Err(err).
			Str("session_id", session.ID.String()).
			Msg("Failed to enqueue summary job")
	}
	return nil
}

// HasNextQuestion reports whether undispensed slots remain.
func (s *ExamService) HasNextQuestion(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	counts, err := s.sessions.CountSlots(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return counts.Undispensed > 0, nil
}

// Percent returns the session's answered/total progress as a rounded
// percentage. Non-decreasing over a session's lifetime.
func (s *ExamService) Percent(ctx context.Context, sessionID uuid.UUID) (int, error) {
	counts, err := s.sessions.CountSlots(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return percentOf(counts.Answered, counts.Total), nil
}

// Result returns the scoring summary of a session, nil while unfinished.
// Reads through the Redis result cache and self-heals it on a miss.
func (s *ExamService) Result(ctx context.Context, sessionID uuid.UUID, userID int) (*model.ExamSummary, error) {
	session, err := s.getOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	key := config.CacheKey.SessionResultKey(session.ID.String())
	cached := &model.ExamSummary{}
	err = s.cache.GetJSON(ctx, key, cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Result cache read failed")
	}

	slots, err := s.sessions.ListSlots(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	summary := Summarize(slots)
	if summary == nil {
		return nil, nil
	}

	if err := s.cache.SetJSON(ctx, key, summary, config.ResultCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Result cache write failed")
	}
	return summary, nil
}

// List retrieves paginated session overviews for a user.
func (s *ExamService) List(ctx context.Context, userID, page, perPage int) ([]model.SessionOverview, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	overviews, total, err := s.sessions.ListByUser(ctx, userID, page, perPage)
	if err != nil {
		return nil, nil, err
	}
	if overviews == nil {
		overviews = []model.SessionOverview{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return overviews, pagination, nil
}

// getOwned loads a session and verifies the caller owns it.
func (s *ExamService) getOwned(ctx context.Context, sessionID uuid.UUID, userID int) (*model.ExamSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrAccessDenied
	}
	return session, nil
}

// checkExamPermission gates mutating calls to the started-but-not-ended window.
func checkExamPermission(session *model.ExamSession) error {
	if !session.Started() {
		return ErrNotStarted
	}
	if session.Ended() {
		return ErrAlreadyFinished
	}
	return nil
}

// groupPayloads resolves a group's user-facing question payloads through the
// Redis cache, falling back to PostgreSQL and self-healing the cache on a miss.
func (s *ExamService) groupPayloads(ctx context.Context, groupID uuid.UUID) ([]model.QuestionPayload, error) {
	var payloads []model.QuestionPayload
	err := s.cache.GetJSON(ctx, config.CacheKey.GroupPayloadKey(groupID.String()), &payloads)
	if err == nil {
		return payloads, nil
	}
	if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("group_id", groupID.String()).Msg("Payload cache read failed")
	}
	return s.refreshGroupPayloads(ctx, groupID)
}

// refreshGroupPayloads bypasses the cache, loads the payloads from
// PostgreSQL, and re-warms the cache entry.
func (s *ExamService) refreshGroupPayloads(ctx context.Context, groupID uuid.UUID) ([]model.QuestionPayload, error) {
	payloads, err := s.questions.GroupPayloads(ctx, groupID)
	if err != nil {
		return nil, err
	}
	key := config.CacheKey.GroupPayloadKey(groupID.String())
	if err := s.cache.SetJSON(ctx, key, payloads, 0); err != nil {
		s.log.Warn().Err(err).Str("group_id", groupID.String()).Msg("Payload cache write failed")
	}
	return payloads, nil
}

// pickPayload returns a copy of the payload matching questionID, its options
// slice copied so shuffling never touches the cached order. Nil when absent.
func pickPayload(payloads []model.QuestionPayload, questionID uuid.UUID) *model.QuestionPayload {
	for i := range payloads {
		if payloads[i].ID == questionID {
			p := payloads[i]
			p.Options = append([]model.AnswerOption(nil), p.Options...)
			return &p
		}
	}
	return nil
}

// shuffleOptions randomizes answer option order in place.
func shuffleOptions(options []model.AnswerOption) {
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
}
