// Package grading реализует проверку ответов: сравнение одного ответа с элементом
// ключа (Match) и подсчёт результата экзамена по всем разделам (Score).
// Пакет не имеет побочных эффектов и не обращается к хранилищу.
package grading

import (
	"strings"

	"github.com/magabrotheeeer/testprep/internal/models"
)

// MatchResult — вердикт по одному вопросу.
type MatchResult struct {
	Percent   float64
	IsCorrect bool
}

var (
	hit  = MatchResult{Percent: 100, IsCorrect: true}
	miss = MatchResult{}
)

// Match сравнивает ответ студента с элементом ключа.
//
// Сравнение нечувствительно к регистру и пробелам по краям. Для ключа AnyOf
// достаточно совпадения любого токена ответа с любым допустимым вариантом.
// Пустой ответ всегда оценивается в 0.
func Match(correct models.AnswerKey, submitted models.Answer) MatchResult {
	tokens := normalizeAll(submitted.Tokens)
	if len(tokens) == 0 {
		return miss
	}

	if !correct.IsAnyOf() {
		if len(tokens) != 1 {
			return miss
		}
		if tokens[0] == normalize(correct.Value()) {
			return hit
		}
		return miss
	}

	accepted := make(map[string]struct{}, len(correct.Options()))
	for _, option := range correct.Options() {
		accepted[normalize(option)] = struct{}{}
	}
	for _, token := range tokens {
		if _, ok := accepted[token]; ok {
			return hit
		}
	}
	return miss
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeAll отбрасывает пустые токены.
func normalizeAll(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if n := normalize(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}
