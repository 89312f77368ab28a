package grading

import (
	"errors"
	"math"

	"github.com/magabrotheeeer/testprep/internal/models"
)

// ErrNoParts возвращается, если у экзамена нет ни одного раздела.
var ErrNoParts = errors.New("no parts found")

// Score проверяет ответы по всем разделам экзамена.
//
// Ответы сопоставляются с ключами по сквозному индексу: разделы обходятся по порядку,
// каждый элемент ключа занимает одну позицию в answers. Разделы с пустым ключом
// позиций не занимают. Отсутствующие позиции считаются пустыми ответами.
func Score(exam models.Exam, answers []models.Answer) (models.Report, error) {
	if len(exam.Parts) == 0 {
		return models.Report{}, ErrNoParts
	}

	report := models.Report{
		Detailed: []models.Detail{},
		Results:  []float64{},
	}

	globalIndex := 0
	for partIndex, part := range exam.Parts {
		globalIndex = scorePart(&report, partIndex, part, answers, globalIndex)
	}

	if report.Total == 0 {
		return report, nil
	}

	var sum float64
	for _, p := range report.Results {
		sum += p
	}
	report.Score = math.Round(sum/float64(report.Total)*100) / 100
	return report, nil
}

// scorePart проверяет один раздел начиная с позиции from и возвращает следующую свободную позицию.
func scorePart(report *models.Report, partIndex int, part models.Part, answers []models.Answer, from int) int {
	next := from
	for questionIndex, key := range part.Answers {
		var student models.Answer
		if next < len(answers) {
			student = answers[next]
		}
		verdict := Match(key, student)

		report.Detailed = append(report.Detailed, models.Detail{
			PartIndex:     partIndex,
			QuestionIndex: questionIndex,
			GlobalIndex:   next,
			Correct:       key,
			Student:       student,
			Percent:       verdict.Percent,
			IsCorrect:     verdict.IsCorrect,
		})
		report.Results = append(report.Results, verdict.Percent)
		report.Total++
		if verdict.IsCorrect {
			report.CorrectCount++
		} else {
			report.IncorrectCount++
		}
		next++
	}
	return next
}
