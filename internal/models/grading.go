package models

import "time"

// Detail — результат проверки одного вопроса.
type Detail struct {
	PartIndex     int       `json:"partIndex"`
	QuestionIndex int       `json:"questionIndex"` // Индекс вопроса внутри раздела
	GlobalIndex   int       `json:"globalIndex"`   // Позиция в общем массиве ответов
	Correct       AnswerKey `json:"correct"`
	Student       Answer    `json:"student"`
	Percent       float64   `json:"percent"`
	IsCorrect     bool      `json:"isCorrect"`
}

// Report — агрегированный результат проверки экзамена.
type Report struct {
	Detailed       []Detail  `json:"detailed"`
	Results        []float64 `json:"results"`
	Score          float64   `json:"score"`
	Total          int       `json:"total"`
	CorrectCount   int       `json:"correctCount"`
	IncorrectCount int       `json:"incorrectCount"`
}

// GradingResult — результат проверки, сохраняемый в историю пользователя
// и возвращаемый клиенту вместе со снимком прав.
type GradingResult struct {
	ExamID string `json:"examId"`
	Report
	Answers     []Answer    `json:"answers"`
	SubmittedAt time.Time   `json:"submittedAt"`
	Entitlement Entitlement `json:"subscription"`
}

// Attempt описывает запись одной попытки: добавление Usage в подписку
// и результата в историю пользователя выполняются вместе.
type Attempt struct {
	SubscriptionID string
	UserID         string
	Usage          Usage
	Result         GradingResult
}

// Submission — отправленные пользователем ответы на экзамен.
type Submission struct {
	ExamID  string   `json:"questionId" validate:"required"`
	Answers []Answer `json:"answers" validate:"required"`
}
