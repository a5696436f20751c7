package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/hitoshi/postboard/internal/metrics"
	"github.com/hitoshi/postboard/internal/model"
	"github.com/hitoshi/postboard/internal/repository"
)

var (
	// ErrUnauthenticated はリクエストの主体を特定できなかったことを表す。
	ErrUnauthenticated = errors.New("auth: could not validate credentials")
	// ErrForbidden は認証済みだが管理者権限を持たないことを表す。
	ErrForbidden = errors.New("auth: admin privileges required")
)

// Gate はベアラートークンから現在のユーザーを解決し、管理者権限を判定する。
type Gate struct {
	tokens   *TokenService
	userRepo repository.UserRepository
	metrics  metrics.MetricsCollector
}

// NewGate はGateを生成する。
func NewGate(tokens *TokenService, userRepo repository.UserRepository, mc metrics.MetricsCollector) *Gate {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	return &Gate{tokens: tokens, userRepo: userRepo, metrics: mc}
}

// CurrentUser はアクセストークンを検証し、対応するユーザーを返す。
// 検証失敗、種別違い、ユーザー不在、ストレージ障害はすべてErrUnauthenticatedになる。
func (g *Gate) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	payload, err := g.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	if payload.TokenType != KindAccess {
		g.metrics.RecordAuthFailure(metrics.ReasonWrongKind)
		return nil, ErrUnauthenticated
	}

	return g.loadUser(ctx, payload)
}

// CurrentAdminUser は管理者であればユーザーをそのまま返し、そうでなければErrForbiddenを返す。
func (g *Gate) CurrentAdminUser(user *model.User) (*model.User, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if !user.Admin {
		g.metrics.RecordAuthFailure(metrics.ReasonForbidden)
		return nil, ErrForbidden
	}
	return user, nil
}

func (g *Gate) loadUser(ctx context.Context, payload *TokenPayload) (*model.User, error) {
	userID, err := strconv.ParseInt(payload.UserID, 10, 64)
	if err != nil {
		g.metrics.RecordAuthFailure(metrics.ReasonInvalidToken)
		return nil, ErrUnauthenticated
	}

	user, err := g.userRepo.FindByID(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load token subject",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, ErrUnauthenticated
	}
	if user == nil {
		g.metrics.RecordAuthFailure(metrics.ReasonUnknownUser)
		return nil, ErrUnauthenticated
	}
	return user, nil
}
