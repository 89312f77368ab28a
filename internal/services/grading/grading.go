// Package services реализует проверку ответов с учётом подписки пользователя:
// выбор подписки, загрузку экзамена, подсчёт баллов и атомарную запись попытки.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/testprep/internal/grading"
	"github.com/magabrotheeeer/testprep/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/metrics"
	"github.com/magabrotheeeer/testprep/internal/models"
)

var (
	// ErrValidation возвращается при отсутствии идентификатора экзамена или ответов.
	ErrValidation = errors.New("questionId and answers are required")
	// ErrNoActiveSubscription возвращается, если у пользователя нет пригодной подписки.
	ErrNoActiveSubscription = errors.New("no active subscription")
	// ErrQuestionNotFound возвращается, если экзамен не найден.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNoParts возвращается, если у экзамена нет разделов.
	ErrNoParts = grading.ErrNoParts
)

// SubscriptionResolver выбирает подписку, управляющую доступом пользователя.
type SubscriptionResolver interface {
	Resolve(ctx context.Context, userID string) (*models.Subscription, error)
}

// ExamProvider загружает экзамен с разделами.
type ExamProvider interface {
	Get(ctx context.Context, id string) (*models.Exam, error)
}

// AttemptRecorder записывает попытку и деактивирует подписку.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt models.Attempt, now time.Time) (*models.Subscription, error)
	Deactivate(ctx context.Context, id string) (bool, error)
}

// Publisher публикует события.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// CompletedEvent публикуется после успешной проверки.
type CompletedEvent struct {
	UserID         string             `json:"user_id"`
	ExamID         string             `json:"exam_id"`
	SubscriptionID string             `json:"subscription_id"`
	Score          float64            `json:"score"`
	Total          int                `json:"total"`
	CorrectCount   int                `json:"correct_count"`
	Entitlement    models.Entitlement `json:"subscription"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// Service оркестрирует проверку ответов.
type Service struct {
	subs      SubscriptionResolver
	exams     ExamProvider
	attempts  AttemptRecorder
	publisher Publisher
	log       *slog.Logger
	timeout   time.Duration
	now       func() time.Time
}

// New создаёт Service. timeout ограничивает работу с хранилищем в рамках одной проверки.
func New(subs SubscriptionResolver, exams ExamProvider, attempts AttemptRecorder, publisher Publisher,
	log *slog.Logger, timeout time.Duration) *Service {
	return &Service{
		subs:      subs,
		exams:     exams,
		attempts:  attempts,
		publisher: publisher,
		log:       log,
		timeout:   timeout,
		now:       time.Now,
	}
}

// GradeSubmission проверяет ответы пользователя и списывает одну попытку подписки.
// Результат и попытка сохраняются вместе или не сохраняются вовсе.
func (s *Service) GradeSubmission(ctx context.Context, userID string, sub models.Submission) (*models.GradingResult, error) {
	res, err := s.grade(ctx, userID, sub)
	switch {
	case err == nil:
		metrics.RecordGrading(metrics.OutcomeGraded, res.Score)
	case errors.Is(err, ErrNoActiveSubscription):
		metrics.RecordGrading(metrics.OutcomeNoSubscription, 0)
	case errors.Is(err, ErrQuestionNotFound):
		metrics.RecordGrading(metrics.OutcomeNotFound, 0)
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNoParts):
		metrics.RecordGrading(metrics.OutcomeInvalid, 0)
	default:
		metrics.RecordGrading(metrics.OutcomeError, 0)
	}
	return res, err
}

func (s *Service) grade(ctx context.Context, userID string, in models.Submission) (*models.GradingResult, error) {
	const op = "services.grading.GradeSubmission"
	if in.ExamID == "" || in.Answers == nil {
		return nil, ErrValidation
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	sub, err := s.subs.Resolve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub == nil {
		return nil, ErrNoActiveSubscription
	}

	exam, err := s.exams.Get(ctx, in.ExamID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	report, err := grading.Score(*exam, in.Answers)
	if err != nil {
		return nil, err
	}

	now := s.now()
	attempt := models.Attempt{
		SubscriptionID: sub.ID,
		UserID:         userID,
		Usage:          models.Usage{ExamID: exam.ID, Score: report.Score, UsedAt: now},
		Result: models.GradingResult{
			ExamID:      exam.ID,
			Report:      report,
			Answers:     in.Answers,
			SubmittedAt: now,
		},
	}
	updated, err := s.attempts.RecordAttempt(ctx, attempt, now)
	if errors.Is(err, models.ErrSubscriptionFinished) {
		// Последнюю попытку успел списать параллельный запрос.
		if updated != nil && updated.Active {
			if _, derr := s.attempts.Deactivate(ctx, updated.ID); derr != nil {
				s.log.Warn("failed to deactivate finished subscription",
					slog.String("subscription_id", updated.ID), sl.Err(derr))
			}
		}
		return nil, ErrNoActiveSubscription
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := attempt.Result
	result.Entitlement = models.EntitlementOf(updated)

	s.publish(ctx, userID, result)
	return &result, nil
}

func (s *Service) publish(ctx context.Context, userID string, result models.GradingResult) {
	event := CompletedEvent{
		UserID:         userID,
		ExamID:         result.ExamID,
		SubscriptionID: result.Entitlement.SubscriptionID,
		Score:          result.Score,
		Total:          result.Total,
		CorrectCount:   result.CorrectCount,
		Entitlement:    result.Entitlement,
		OccurredAt:     result.SubmittedAt,
	}
	if err := s.publisher.Publish(ctx, rabbitmq.RoutingGradingCompleted, event); err != nil {
		s.log.Warn("failed to publish grading event", slog.String("user_id", userID), sl.Err(err))
	}
}
