package models

import "time"

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User представляет зарегистрированного пользователя платформы.
type User struct {
	ID           string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта (уникальная)
	PasswordHash string    // Хэш пароля
	FullName     string    // Имя пользователя
	Role         string    // Роль: student или admin
	Active       bool      // Признак активной учётной записи
	CreatedAt    time.Time // Дата регистрации
}
