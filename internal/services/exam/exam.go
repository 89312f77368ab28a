// Package services реализует создание экзаменов и их чтение с кэшированием в Redis.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/models"
)

// Repository определяет методы хранилища экзаменов.
type Repository interface {
	CreateExam(ctx context.Context, exam models.Exam) (*models.Exam, error)
	FindExamByID(ctx context.Context, id string) (*models.Exam, error)
	ListExams(ctx context.Context, publishedOnly bool, limit, offset int) ([]models.Exam, error)
}

// Cache определяет методы кэша.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Service реализует бизнес-логику экзаменов.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
	ttl   time.Duration
}

// New создаёт Service. ttl — время жизни экзамена в кэше.
func New(repo Repository, cache Cache, log *slog.Logger, ttl time.Duration) *Service {
	return &Service{repo: repo, cache: cache, log: log, ttl: ttl}
}

func cacheKey(id string) string {
	return "exam:" + id
}

// Create сохраняет экзамен вместе с разделами.
func (s *Service) Create(ctx context.Context, createdBy string, in models.DummyExam) (*models.Exam, error) {
	const op = "services.exam.Create"
	exam := models.Exam{
		Title:     strings.TrimSpace(in.Title),
		Slug:      strings.TrimSpace(in.Slug),
		Type:      in.Type,
		Tags:      in.Tags,
		Published: in.Published,
		CreatedBy: createdBy,
		Parts:     make([]models.Part, 0, len(in.Parts)),
	}
	if exam.Tags == nil {
		exam.Tags = []string{}
	}
	for i, p := range in.Parts {
		answers := p.Answers
		if answers == nil {
			answers = []models.AnswerKey{}
		}
		exam.Parts = append(exam.Parts, models.Part{
			Position:  i,
			Markdown:  p.Markdown,
			PartTypes: p.PartTypes,
			Answers:   answers,
		})
	}

	created, err := s.repo.CreateExam(ctx, exam)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, cacheKey(created.ID), created, s.ttl); err != nil {
		s.log.Warn("failed to cache exam", slog.String("exam_id", created.ID), sl.Err(err))
	}
	return created, nil
}

// Get возвращает экзамен по идентификатору, сначала из кэша.
// models.ErrNotFound, если экзамена нет.
func (s *Service) Get(ctx context.Context, id string) (*models.Exam, error) {
	const op = "services.exam.Get"
	var exam models.Exam
	found, err := s.cache.Get(ctx, cacheKey(id), &exam)
	if err != nil {
		s.log.Warn("failed to read exam from cache", slog.String("exam_id", id), sl.Err(err))
	}
	if found {
		return &exam, nil
	}

	res, err := s.repo.FindExamByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, cacheKey(id), res, s.ttl); err != nil {
		s.log.Warn("failed to cache exam", slog.String("exam_id", id), sl.Err(err))
	}
	return res, nil
}

// List возвращает страницу экзаменов без разделов.
func (s *Service) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]models.Exam, error) {
	const op = "services.exam.List"
	exams, err := s.repo.ListExams(ctx, publishedOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return exams, nil
}
