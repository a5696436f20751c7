package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptの出力のみを保持し、平文パスワードは保持しない。
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Admin        bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// NewUser は登録時に永続化するユーザーを表す。
// IDとCreatedAtはストレージ側で採番される。
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	Admin        bool
}
