// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/postboard/internal/model"
)

// ErrDuplicateUser はusernameまたはemailが既に登録済みであることを表す。
var ErrDuplicateUser = errors.New("repository: user already exists")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// List は全ユーザーをID昇順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// Create は重複確認と挿入を同一トランザクションで行う。
	// usernameまたはemailが重複する場合はErrDuplicateUserを返す。
	Create(ctx context.Context, user *model.NewUser) (*model.User, error)

	// UpdateLastLogin はlast_loginを更新する。
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// List は全投稿を作成日時の降順で返す。
	List(ctx context.Context) ([]*model.Post, error)

	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Post, error)

	// Create は投稿を作成し、採番されたIDとcreated_atを設定して返す。
	Create(ctx context.Context, post *model.Post) (*model.Post, error)

	// Update はtitle、content、publishedを上書きする。見つからない場合はnilを返す。
	Update(ctx context.Context, post *model.Post) (*model.Post, error)

	// Delete は指定IDの投稿を削除する。削除対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}
