// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/postboard/internal/auth"
	"github.com/hitoshi/postboard/internal/metrics"
	"github.com/hitoshi/postboard/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// Authenticator はベアラートークンから現在のユーザーを解決する。
// auth.Gateの部分集合として定義する。
type Authenticator interface {
	CurrentUser(ctx context.Context, token string) (*model.User, error)
}

// AdminChecker は認証済みユーザーが管理者かどうかを判定する。
type AdminChecker interface {
	CurrentAdminUser(user *model.User) (*model.User, error)
}

// ContextWithUser は認証済みユーザーをコンテキストに格納する。
// ロギングミドルウェアが配下にいる場合はユーザーIDをログ項目にも記録する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	if fields, ok := ctx.Value(logFieldsContextKey).(*requestLogFields); ok && user != nil {
		fields.userID = user.ID
	}
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext はコンテキストから認証済みユーザーを取り出す。
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// UserIDFromContext はコンテキストから認証済みユーザーのIDを取り出す。
func UserIDFromContext(ctx context.Context) (int64, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return 0, fmt.Errorf("user not found in context")
	}
	return user.ID, nil
}

// NewBearerMiddleware はAuthorizationヘッダーのベアラートークンを検証するミドルウェアを返す。
// 認証済みユーザーをリクエストコンテキストに注入する。
// ヘッダーの欠落・形式不正・検証失敗にはすべて同じ401を返す。
func NewBearerMiddleware(authn Authenticator, mc metrics.MetricsCollector) func(next http.Handler) http.Handler {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				mc.RecordAuthFailure(metrics.ReasonMissingToken)
				WriteUnauthorized(w)
				return
			}

			user, err := authn.CurrentUser(r.Context(), token)
			if err != nil {
				slog.DebugContext(r.Context(), "bearer authentication failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin は管理者以外のリクエストを403で拒否するミドルウェアを返す。
// NewBearerMiddlewareの内側に配置すること。
func RequireAdmin(checker AdminChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := UserFromContext(r.Context())
			if _, err := checker.CurrentAdminUser(user); err != nil {
				if errors.Is(err, auth.ErrForbidden) {
					WriteForbidden(w)
					return
				}
				WriteUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken は "Authorization: Bearer <token>" からトークンを取り出す。
// スキーム名の大文字小文字は区別しない。
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], auth.BearerTokenType) {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
