package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quizdesk/quizdesk-backend/internal/middleware"
	"github.com/quizdesk/quizdesk-backend/internal/model"
	"github.com/quizdesk/quizdesk-backend/internal/response"
	"github.com/quizdesk/quizdesk-backend/internal/service"
	"github.com/quizdesk/quizdesk-backend/internal/validator"
)

// ExamHandler handles the exam-taking endpoints.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// AssignExam godoc
// POST /api/v1/exams/assign
// Creates an unstarted session pairing the caller with a question group.
// Idempotent per (group, user).
func (h *ExamHandler) AssignExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AssignExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.examService.Assign(c.Request.Context(), req.GroupID, claims.UserID)
	if err != nil {
		h.failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// StartExam godoc
// POST /api/v1/exams/:exam_id/start
// Starts the session and dispenses the first question.
func (h *ExamHandler) StartExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	count, err := h.examService.Start(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		h.failFromErr(c, err)
		return
	}

	next, err := h.examService.NextQuestion(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		h.failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":         "Exam started.",
		"questions_count": count,
		"percent":         0,
		"next_question":   next,
	})
}

// ChooseAnswer godoc
// POST /api/v1/exams/:exam_id/choose-answer
// Records an answer on the dispensed slot and dispenses the next question.
// When no question remains the session is finished and the summary attached.
func (h *ExamHandler) ChooseAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ChooseAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ctx := c.Request.Context()

	isCorrect, err := h.examService.ChooseAnswer(ctx, sessionID, claims.UserID, req.Question, req.Answer)
	if err != nil {
		h.failFromErr(c, err)
		return
	}

	percent, err := h.examService.Percent(ctx, sessionID)
	if err != nil {
		h.failFromErr(c, err)
		return
	}

	next, err := h.examService.NextQuestion(ctx, sessionID, claims.UserID)
	if err != nil {
		h.failFromErr(c, err)
		return
	}

	var result *model.ExamSummary
	isFinish := next == nil
	if isFinish {
		result, err = h.examService.Result(ctx, sessionID, claims.UserID)
		if err != nil {
			h.failFromErr(c, err)
			return
		}
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":       "Answer recorded.",
		"is_correct":    isCorrect,
		"is_finish":     isFinish,
		"percent":       percent,
		"next_question": next,
		"result":        result,
	})
}

// ListExams godoc
// GET /api/v1/exams/list
// Returns paginated session overviews for the caller.
func (h *ExamHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	overviews, pagination, err := h.examService.List(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		h.failFromErr(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": overviews}, pagination)
}

// GetResult godoc
// GET /api/v1/exams/:exam_id/result
// Returns the scoring summary, null while the session is unfinished.
func (h *ExamHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.examService.Result(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		h.failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// failFromErr maps domain errors onto error codes and HTTP status.
func (h *ExamHandler) failFromErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAccessDenied):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrGroupNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrAlreadyStarted):
		response.Fail(c, http.StatusBadRequest, response.ErrExamAlreadyStarted)
	case errors.Is(err, service.ErrNotStarted):
		response.Fail(c, http.StatusBadRequest, response.ErrExamNotStarted)
	case errors.Is(err, service.ErrAlreadyFinished):
		response.Fail(c, http.StatusBadRequest, response.ErrExamAlreadyFinished)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusNotFound, response.ErrNoQuestions)
	case errors.Is(err, service.ErrSlotNotAvailable):
		response.Fail(c, http.StatusNotFound, response.ErrSlotNotAvailable)
	case errors.Is(err, service.ErrAnswerNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrAnswerNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
