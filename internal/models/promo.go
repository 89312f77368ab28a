package models

import "time"

// Promo — промокод инфлюенсера. Новому пользователю выдаётся TariffID,
// владельцу после каждых RequiredReferrals активаций — RewardTariffID.
type Promo struct {
	ID                string    `json:"id"`
	Code              string    `json:"code"`
	TariffID          string    `json:"tarifId"`
	OwnerID           string    `json:"ownerId"`
	RewardTariffID    string    `json:"rewardTarifId"`
	RequiredReferrals int       `json:"required_referrals"`
	UsedCount         int       `json:"used_count"`
	UsageLimit        int       `json:"usage_limit"`
	ExpireDate        time.Time `json:"expire_date"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
}

// DummyPromo используется для приёма промокода из JSON-запроса.
type DummyPromo struct {
	Code              string    `json:"code" validate:"required,max=64"`
	TariffID          string    `json:"tarifId" validate:"required,uuid"`
	OwnerID           string    `json:"ownerId" validate:"required,uuid"`
	RewardTariffID    string    `json:"rewardTarifId" validate:"required,uuid"`
	RequiredReferrals int       `json:"required_referrals" validate:"omitempty,gt=0"`
	UsageLimit        int       `json:"usage_limit" validate:"omitempty,gt=0"`
	ExpireDate        time.Time `json:"expire_date" validate:"required"`
}

// Available сообщает, можно ли активировать промокод в момент now.
func (p *Promo) Available(now time.Time) bool {
	return p.Active && now.Before(p.ExpireDate) && p.UsedCount < p.UsageLimit
}

// RewardDue сообщает, заработал ли владелец награду последней активацией.
func (p *Promo) RewardDue() bool {
	return p.RequiredReferrals > 0 && p.UsedCount > 0 && p.UsedCount%p.RequiredReferrals == 0
}
