package service

import (
	"fmt"
	"math"
	"time"

	"github.com/quizdesk/quizdesk-backend/internal/model"
)

// Summarize computes the final scoring record over a session's slots.
// It returns nil while any slot is still undispensed; a summary is only
// meaningful once every question has been sent.
//
// The incorrect counter scopes on is_correct alone, so never-answered slots
// count as incorrect alongside wrong answers (is_correct defaults to false).
func Summarize(slots []model.QuestionSlot) *model.ExamSummary {
	if len(slots) == 0 {
		return nil
	}

	var (
		correct int
		point   int
		minSent *time.Time
		maxAns  *time.Time
	)
	for i := range slots {
		s := &slots[i]
		if s.SentAt == nil {
			return nil
		}
		if s.IsCorrect {
			correct++
		}
		point += s.Point
		if minSent == nil || s.SentAt.Before(*minSent) {
			minSent = s.SentAt
		}
		if s.AnsweredAt != nil && (maxAns == nil || s.AnsweredAt.After(*maxAns)) {
			maxAns = s.AnsweredAt
		}
	}

	total := len(slots)
	elapsed := 0
	if minSent != nil && maxAns != nil {
		elapsed = int(math.Round(maxAns.Sub(*minSent).Seconds()))
	}

	return &model.ExamSummary{
		Correct:        correct,
		Incorrect:      total - correct,
		Total:          total,
		SuccessRate:    percentOf(correct, total),
		Point:          point,
		ElapsedSeconds: elapsed,
		Elapsed:        formatElapsed(elapsed),
	}
}

// percentOf returns part/total*100 rounded half away from zero, 0 when total is 0.
func percentOf(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// formatElapsed renders a second count as zero-padded MM:SS.
func formatElapsed(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
