package models

import "time"

// Usage — запись об одной использованной попытке в рамках подписки.
type Usage struct {
	ExamID string    `json:"exam_id"`
	Score  float64   `json:"score"`
	UsedAt time.Time `json:"used_at"`
}

// Subscription представляет выданное пользователю право доступа по тарифу.
// Kind и Quota копируются из тарифа в момент создания.
// Quota == nil означает отсутствие ограничения по количеству (premium),
// ExpiresAt == nil означает отсутствие ограничения по времени (package).
type Subscription struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TariffID  string     `json:"tariff_id"`
	Kind      Kind       `json:"kind"`
	Quota     *int       `json:"tests_count"`
	Usage     []Usage    `json:"used"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expired_date"`
	CreatedAt time.Time  `json:"created_at"`
}

// Used возвращает количество использованных попыток.
func (s *Subscription) Used() int {
	return len(s.Usage)
}

// Remaining возвращает остаток попыток. Второе значение false означает,
// что остаток не ограничен (premium или подписка без квоты).
func (s *Subscription) Remaining() (int, bool) {
	if s.Kind != KindPackage || s.Quota == nil {
		return 0, false
	}
	left := *s.Quota - len(s.Usage)
	if left < 0 {
		left = 0
	}
	return left, true
}

// Finished сообщает, исчерпана ли подписка на момент now:
// для package — использована вся квота, для premium — истёк срок действия.
func (s *Subscription) Finished(now time.Time) bool {
	switch s.Kind {
	case KindPackage:
		if s.Quota == nil {
			return false
		}
		return len(s.Usage) >= *s.Quota
	case KindPremium:
		if s.ExpiresAt == nil {
			return false
		}
		return now.After(*s.ExpiresAt)
	default:
		return false
	}
}

// Entitlement — снимок прав пользователя, возвращаемый вместе с результатом проверки.
type Entitlement struct {
	SubscriptionID string     `json:"subscription_id"`
	Kind           Kind       `json:"kind"`
	Unlimited      bool       `json:"unlimited"`
	Quota          *int       `json:"tests_count"`
	Used           int        `json:"used_count"`
	Remaining      *int       `json:"remaining_count"` // nil — без ограничения
	ExpiresAt      *time.Time `json:"expired_date"`
}

// EntitlementOf строит снимок прав по подписке.
func EntitlementOf(s *Subscription) Entitlement {
	e := Entitlement{
		SubscriptionID: s.ID,
		Kind:           s.Kind,
		Quota:          s.Quota,
		Used:           s.Used(),
		ExpiresAt:      s.ExpiresAt,
	}
	if left, bounded := s.Remaining(); bounded {
		e.Remaining = &left
	} else {
		e.Unlimited = true
	}
	return e
}

// SubscriptionEvent публикуется в RabbitMQ при изменении жизненного цикла подписки.
type SubscriptionEvent struct {
	SubscriptionID string    `json:"subscription_id"`
	UserID         string    `json:"user_id"`
	Kind           Kind      `json:"kind"`
	Reason         string    `json:"reason"`
	OccurredAt     time.Time `json:"occurred_at"`
}
