package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/testprep/internal/models"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name      string
		correct   models.AnswerKey
		submitted models.Answer
		want      MatchResult
	}{
		{
			name:      "single exact",
			correct:   models.Single("Paris"),
			submitted: models.Text("Paris"),
			want:      MatchResult{Percent: 100, IsCorrect: true},
		},
		{
			name:      "single case and whitespace insensitive",
			correct:   models.Single("Paris"),
			submitted: models.Text("  paris "),
			want:      MatchResult{Percent: 100, IsCorrect: true},
		},
		{
			name:      "single key with padded value",
			correct:   models.Single(" LONDON "),
			submitted: models.Text("london"),
			want:      MatchResult{Percent: 100, IsCorrect: true},
		},
		{
			name:      "single mismatch",
			correct:   models.Single("Paris"),
			submitted: models.Text("Rome"),
			want:      MatchResult{},
		},
		{
			name:      "single with one element array",
			correct:   models.Single("B"),
			submitted: models.Texts("b"),
			want:      MatchResult{Percent: 100, IsCorrect: true},
		},
		{
			name:      "single with several tokens never matches",
			correct:   models.Single("B"),
			submitted: models.Texts("A", "B"),
			want:      MatchResult{},
		},
		{
			name:      "missing answer",
			correct:   models.Single("Paris"),
			submitted: models.Answer{},
			want:      MatchResult{},
		},
		{
			name:      "empty string answer",
			correct:   models.Single(""),
			submitted: models.Text(""),
			want:      MatchResult{},
		},
		{
			name:      "blank answer",
			correct:   models.AnyOf("cat", "cats"),
			submitted: models.Text("   "),
			want:      MatchResult{},
		},
		{
			name:      "any of with scalar",
			correct:   models.AnyOf("cat", "cats"),
			submitted: models.Text("Cats"),
			want:      MatchResult{Percent: 100, IsCorrect: true},
		},
		{
			name:      "any of with one overlapping token",
			correct:   models.AnyOf("cat", "cats"),
			submitted: models.Texts("dog", "bird", " CAT "),
			want:      MatchResult{Percent: 100, IsCorrect: true},
		},
		{
			name:      "any of without overlap",
			correct:   models.AnyOf("cat", "cats"),
			submitted: models.Texts("dog", "bird"),
			want:      MatchResult{},
		},
		{
			name:      "any of with empty options",
			correct:   models.AnyOf(),
			submitted: models.Text("cat"),
			want:      MatchResult{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.correct, tt.submitted))
		})
	}
}
