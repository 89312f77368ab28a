package models

import "errors"

var (
	// ErrNotFound возвращается хранилищем, когда запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists возвращается при нарушении уникальности (email, имя тарифа, промокод).
	ErrAlreadyExists = errors.New("already exists")
	// ErrSubscriptionFinished возвращается, когда подписка оказалась исчерпанной
	// или истёкшей под блокировкой строки в момент записи попытки.
	ErrSubscriptionFinished = errors.New("subscription finished")
	// ErrPromoUnavailable возвращается, когда промокод неактивен, истёк или исчерпан.
	ErrPromoUnavailable = errors.New("promo unavailable")
)
