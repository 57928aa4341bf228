// Package model はドメインモデルを定義する。
package model

import "time"

// User はブログを利用するユーザーを表す。
// PasswordHashは読み出し系のレスポンスには決して含めない。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenPair はログイン時に発行するアクセストークンとリフレッシュトークンの組。
type TokenPair struct {
	Access  string
	Refresh string
}
