// Package auth はパスワードのハッシュ化、トークンの発行・検証、
// 認可判定と、それらを用いた登録・ログインのフローを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/postboard/internal/metrics"
	"github.com/hitoshi/postboard/internal/model"
	"github.com/hitoshi/postboard/internal/repository"
	"github.com/hitoshi/postboard/internal/validation"
)

// BearerTokenType はトークンレスポンスのtoken_typeに設定する値。
const BearerTokenType = "Bearer"

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Username string `json:"username" validate:"notblank,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

// LoginInput はログインの入力。
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenPair はログイン・リフレッシュで返すトークンの組。
// リフレッシュ時はRefreshTokenを空にする。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
}

// Service は登録・ログイン・リフレッシュ・ログアウトとユーザー一覧を提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   *PasswordHasher
	tokens   *TokenService
	gate     *Gate
	metrics  metrics.MetricsCollector
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	hasher *PasswordHasher,
	tokens *TokenService,
	gate *Gate,
	mc metrics.MetricsCollector,
) *Service {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		gate:     gate,
		metrics:  mc,
		now:      time.Now,
	}
}

// Register は新規ユーザーを作成する。
// usernameまたはemailが既存ユーザーと重複する場合はConflictエラーを返す。
// 作成されるユーザーは常に非管理者とする。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, &model.NewUser{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if errors.Is(err, repository.ErrDuplicateUser) {
		return nil, model.NewConflictError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login はemailとパスワードを照合し、アクセストークンとリフレッシュトークンを発行する。
// emailの不一致とパスワードの不一致は同じエラーを返す。
func (s *Service) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !s.hasher.Verify(ctx, in.Password, user.PasswordHash) {
		s.metrics.RecordAuthFailure(metrics.ReasonBadPassword)
		return nil, model.NewInvalidCredentialsError()
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	payload := payloadFor(user)
	access, err := s.tokens.IssueAccess(payload)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(payload)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user logged in", slog.Int64("user_id", user.ID))
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    BearerTokenType,
		ExpiresIn:    s.tokens.AccessTTL(),
	}, nil
}

// Refresh はリフレッシュトークンを検証し、新しいアクセストークンを発行する。
// 管理者フラグは発行時点のユーザー情報から取り直す。
// リフレッシュトークン自体は保存もローテーションもしない。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	payload, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if payload.TokenType != KindRefresh {
		s.metrics.RecordAuthFailure(metrics.ReasonWrongKind)
		return nil, ErrUnauthenticated
	}

	user, err := s.gate.loadUser(ctx, payload)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.IssueAccess(payloadFor(user))
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken: access,
		TokenType:   BearerTokenType,
		ExpiresIn:   s.tokens.AccessTTL(),
	}, nil
}

// Logout は認証済みユーザーのlast_loginを現在時刻で更新する。
// トークンは失効させない（失効リストを持たないため、期限まで有効なまま）。
func (s *Service) Logout(ctx context.Context, user *model.User) error {
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		return fmt.Errorf("failed to record logout: %w", err)
	}
	slog.InfoContext(ctx, "user logged out", slog.Int64("user_id", user.ID))
	return nil
}

// ListUsers は全ユーザーを返す。呼び出し側で管理者判定を済ませておくこと。
func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func payloadFor(user *model.User) TokenPayload {
	return TokenPayload{
		UserID: strconv.FormatInt(user.ID, 10),
		Admin:  user.Admin,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
