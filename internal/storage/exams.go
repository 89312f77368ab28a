package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/testprep/internal/models"
)

const examColumns = `id, title, COALESCE(slug, ''), type, tags, published, COALESCE(created_by::text, ''), created_at`

func scanExam(row rowScanner) (*models.Exam, error) {
	var e models.Exam
	var tags []byte
	if err := row.Scan(&e.ID, &e.Title, &e.Slug, &e.Type, &tags, &e.Published, &e.CreatedBy, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Tags = make([]string, 0)
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &e.Tags); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateExam сохраняет экзамен вместе с разделами в одной транзакции.
// Позиции разделов назначаются по порядку в exam.Parts.
func (s *Storage) CreateExam(ctx context.Context, exam models.Exam) (*models.Exam, error) {
	const op = "storage.CreateExam"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	tags := exam.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rollback(tx)

	row := tx.QueryRowContext(ctx, `INSERT INTO exams (id, title, slug, type, tags, published, created_by)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING `+examColumns,
		uuid.NewString(), exam.Title, nullable(exam.Slug), exam.Type, tagsJSON, exam.Published, nullable(exam.CreatedBy))
	created, err := scanExam(row)
	if err != nil {
		return nil, wrap(op, err)
	}

	created.Parts = make([]models.Part, 0, len(exam.Parts))
	for i, p := range exam.Parts {
		part := models.Part{
			ID:        uuid.NewString(),
			ExamID:    created.ID,
			Position:  i,
			Markdown:  p.Markdown,
			PartTypes: p.PartTypes,
			Answers:   p.Answers,
		}
		if part.PartTypes == nil {
			part.PartTypes = []string{}
		}
		if part.Answers == nil {
			part.Answers = []models.AnswerKey{}
		}
		typesJSON, err := json.Marshal(part.PartTypes)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		answersJSON, err := json.Marshal(part.Answers)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO exam_parts (id, exam_id, position, markdown, part_types, answers)
				  VALUES ($1, $2, $3, $4, $5, $6)`,
			part.ID, part.ExamID, part.Position, part.Markdown, typesJSON, answersJSON); err != nil {
			return nil, wrap(op, err)
		}
		created.Parts = append(created.Parts, part)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrap(op, err)
	}
	return created, nil
}

// FindExamByID возвращает экзамен с разделами в порядке позиций.
func (s *Storage) FindExamByID(ctx context.Context, id string) (*models.Exam, error) {
	const op = "storage.FindExamByID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	exam, err := scanExam(s.DB.QueryRowContext(ctx, `SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, exam_id, position, markdown, part_types, answers
			  FROM exam_parts WHERE exam_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	exam.Parts = make([]models.Part, 0)
	for rows.Next() {
		part, err := scanPart(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		exam.Parts = append(exam.Parts, *part)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return exam, nil
}

func scanPart(rows *sql.Rows) (*models.Part, error) {
	var p models.Part
	var types, answers []byte
	if err := rows.Scan(&p.ID, &p.ExamID, &p.Position, &p.Markdown, &types, &answers); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(types, &p.PartTypes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &p.Answers); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListExams возвращает экзамены без разделов, новые первыми.
func (s *Storage) ListExams(ctx context.Context, publishedOnly bool, limit, offset int) ([]models.Exam, error) {
	const op = "storage.ListExams"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + examColumns + ` FROM exams`
	if publishedOnly {
		query += ` WHERE published`
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	exams := make([]models.Exam, 0)
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		exams = append(exams, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return exams, nil
}
