package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// AnswerKey — элемент ключа ответов: либо одна строка, либо набор допустимых строк.
// В JSON представляется строкой или массивом строк.
type AnswerKey struct {
	one   string
	anyOf []string
	multi bool
}

// Single создаёт ключ с единственным правильным ответом.
func Single(answer string) AnswerKey {
	return AnswerKey{one: answer}
}

// AnyOf создаёт ключ, в котором подходит любой из перечисленных ответов.
func AnyOf(answers ...string) AnswerKey {
	return AnswerKey{anyOf: append([]string(nil), answers...), multi: true}
}

// IsAnyOf сообщает, является ли ключ набором допустимых ответов.
func (k AnswerKey) IsAnyOf() bool {
	return k.multi
}

// Value возвращает правильный ответ ключа Single.
func (k AnswerKey) Value() string {
	return k.one
}

// Options возвращает допустимые ответы ключа AnyOf.
func (k AnswerKey) Options() []string {
	return k.anyOf
}

// MarshalJSON реализует json.Marshaler.
func (k AnswerKey) MarshalJSON() ([]byte, error) {
	if k.multi {
		if k.anyOf == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(k.anyOf)
	}
	return json.Marshal(k.one)
}

// UnmarshalJSON реализует json.Unmarshaler.
func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var options []string
		if err := json.Unmarshal(data, &options); err != nil {
			return err
		}
		*k = AnyOf(options...)
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return errors.New("answer key must be a string or an array of strings")
	}
	*k = Single(one)
	return nil
}

// Answer — ответ студента на один вопрос: ноль, один или несколько токенов.
// В JSON допускаются null, строка или массив строк.
type Answer struct {
	Tokens []string
}

// Text создаёт ответ из одной строки.
func Text(s string) Answer {
	return Answer{Tokens: []string{s}}
}

// Texts создаёт ответ из нескольких строк.
func Texts(s ...string) Answer {
	return Answer{Tokens: append([]string(nil), s...)}
}

// MarshalJSON реализует json.Marshaler.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch len(a.Tokens) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(a.Tokens[0])
	default:
		return json.Marshal(a.Tokens)
	}
}

// UnmarshalJSON реализует json.Unmarshaler.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		a.Tokens = nil
		return nil
	case len(data) > 0 && data[0] == '[':
		var tokens []string
		if err := json.Unmarshal(data, &tokens); err != nil {
			return err
		}
		a.Tokens = tokens
		return nil
	default:
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return errors.New("answer must be a string, an array of strings or null")
		}
		a.Tokens = []string{one}
		return nil
	}
}

// Part — раздел экзамена с собственным упорядоченным ключом ответов.
type Part struct {
	ID        string      `json:"id"`
	ExamID    string      `json:"collection_id"`
	Position  int         `json:"position"`
	Markdown  string      `json:"markdown,omitempty"`
	PartTypes []string    `json:"part_type"`
	Answers   []AnswerKey `json:"answers,omitempty"`
}

// Exam — экзамен (в API — question), упорядоченный набор разделов.
type Exam struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug,omitempty"`
	Type      string    `json:"type"`
	Tags      []string  `json:"tags"`
	Published bool      `json:"published"`
	CreatedBy string    `json:"created_by,omitempty"`
	Parts     []Part    `json:"parts"`
	CreatedAt time.Time `json:"created_at"`
}

// WithoutAnswers возвращает копию экзамена без ключей ответов.
func (e Exam) WithoutAnswers() Exam {
	parts := make([]Part, len(e.Parts))
	for i, p := range e.Parts {
		p.Answers = nil
		parts[i] = p
	}
	e.Parts = parts
	return e
}

// DummyPart используется для приёма раздела из JSON-запроса.
type DummyPart struct {
	Markdown  string      `json:"markdown"`
	PartTypes []string    `json:"part_type" validate:"required,min=1"`
	Answers   []AnswerKey `json:"answers" validate:"required"`
}

// DummyExam используется для приёма экзамена из JSON-запроса.
type DummyExam struct {
	Title     string      `json:"title" validate:"required"`
	Slug      string      `json:"slug"`
	Type      string      `json:"type" validate:"required"`
	Tags      []string    `json:"tags"`
	Published bool        `json:"published"`
	Parts     []DummyPart `json:"parts" validate:"dive"`
}
