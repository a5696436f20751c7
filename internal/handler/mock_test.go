package handler

import (
	"context"
	"errors"

	"github.com/hitoshi/postboard/internal/auth"
	"github.com/hitoshi/postboard/internal/model"
	"github.com/hitoshi/postboard/internal/post"
)

// --- AuthService モック ---

type mockAuthService struct {
	registerFn  func(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	loginFn     func(ctx context.Context, in auth.LoginInput) (*auth.TokenPair, error)
	refreshFn   func(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	logoutFn    func(ctx context.Context, user *model.User) error
	listUsersFn func(ctx context.Context) ([]*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Login(ctx context.Context, in auth.LoginInput) (*auth.TokenPair, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, in)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, refreshToken)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Logout(ctx context.Context, user *model.User) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, user)
	}
	return nil
}

func (m *mockAuthService) ListUsers(ctx context.Context) ([]*model.User, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx)
	}
	return []*model.User{}, nil
}

// --- PostService モック ---

type mockPostService struct {
	listFn   func(ctx context.Context) ([]*model.Post, error)
	getFn    func(ctx context.Context, id int64) (*model.Post, error)
	createFn func(ctx context.Context, in post.Input) (*model.Post, error)
	updateFn func(ctx context.Context, id int64, in post.Input) (*model.Post, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (m *mockPostService) List(ctx context.Context) ([]*model.Post, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []*model.Post{}, nil
}

func (m *mockPostService) Get(ctx context.Context, id int64) (*model.Post, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewPostNotFoundError(id)
}

func (m *mockPostService) Create(ctx context.Context, in post.Input) (*model.Post, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPostService) Update(ctx context.Context, id int64, in post.Input) (*model.Post, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return nil, model.NewPostNotFoundError(id)
}

func (m *mockPostService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Pinger モック ---

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.err
}
