package auth

import (
	"context"
	"time"

	"github.com/hitoshi/postboard/internal/model"
	"github.com/hitoshi/postboard/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn        func(ctx context.Context, id int64) (*model.User, error)
	findByEmailFn     func(ctx context.Context, email string) (*model.User, error)
	listFn            func(ctx context.Context) ([]*model.User, error)
	createFn          func(ctx context.Context, user *model.NewUser) (*model.User, error)
	updateLastLoginFn func(ctx context.Context, id int64, at time.Time) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []*model.User{}, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.NewUser) (*model.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return &model.User{ID: 1, Username: user.Username, Email: user.Email, PasswordHash: user.PasswordHash}, nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	if m.updateLastLoginFn != nil {
		return m.updateLastLoginFn(ctx, id, at)
	}
	return nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)
