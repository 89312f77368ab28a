package jwt

import "time"

// Maker выпускает и проверяет токены, подписанные HMAC-SHA256.
type Maker struct {
	secretKey []byte
	tokenTTL  time.Duration
}

// NewMaker создаёт Maker с секретным ключом и временем жизни токена.
func NewMaker(secretKey string, ttl time.Duration) *Maker {
	return &Maker{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
	}
}
