// Package models содержит доменные структуры платформы подготовки к тестам:
// тарифы, подписки, экзамены с ключами ответов, пользователей, промокоды
// и результаты проверки.
package models

import "time"

// Kind определяет тип тарифа и подписки.
type Kind string

const (
	// KindPackage — фиксированное количество тестов без ограничения по времени.
	KindPackage Kind = "package"
	// KindPremium — неограниченное количество тестов в пределах срока действия.
	KindPremium Kind = "premium"
)

// Valid сообщает, является ли значение известным типом.
func (k Kind) Valid() bool {
	return k == KindPackage || k == KindPremium
}

// Degree — маркетинговый уровень доступа, не зависит от Kind.
type Degree string

const (
	DegreeFree    Degree = "free"
	DegreeLimited Degree = "limited"
)

// Tariff представляет тарифный план, который можно приобрести.
type Tariff struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Kind         Kind      `json:"kind"`
	Degree       Degree    `json:"degree"`
	TestQuota    int       `json:"tests_count"`             // Только для package
	Price        int       `json:"price"`                   // Цена в минимальных единицах валюты
	DurationDays *int      `json:"duration_days,omitempty"` // Только для premium, nil — бессрочно
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DummyTariff используется для приёма данных тарифа из JSON-запроса.
type DummyTariff struct {
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description"`
	Kind         string `json:"kind" validate:"required,oneof=package premium"`
	Degree       string `json:"degree" validate:"omitempty,oneof=free limited"`
	TestQuota    int    `json:"tests_count" validate:"gte=0"`
	Price        int    `json:"price" validate:"gte=0"`
	DurationDays *int   `json:"duration_days" validate:"omitempty,gt=0"`
}

// TariffUpdate описывает частичное обновление тарифа; nil-поля не меняются.
type TariffUpdate struct {
	Name         *string `json:"name" validate:"omitempty,max=100"`
	Description  *string `json:"description"`
	Degree       *string `json:"degree" validate:"omitempty,oneof=free limited"`
	TestQuota    *int    `json:"tests_count" validate:"omitempty,gte=0"`
	Price        *int    `json:"price" validate:"omitempty,gte=0"`
	DurationDays *int    `json:"duration_days" validate:"omitempty,gt=0"`
	Active       *bool   `json:"active"`
}
