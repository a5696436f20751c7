package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/hitoshi/postboard/internal/metrics"
)

// maxPasswordBytes はbcryptが受け付ける入力の上限。
const maxPasswordBytes = 72

// ErrInvalidPassword はハッシュ化できない平文パスワード（空または72バイト超）を表す。
var ErrInvalidPassword = errors.New("auth: password must be 1 to 72 bytes")

// PasswordHasher はbcryptによるパスワードのハッシュ化と照合を行う。
// bcryptはCPUを占有するため、同時実行数をセマフォで制限する。
type PasswordHasher struct {
	cost    int
	sem     *semaphore.Weighted
	metrics metrics.MetricsCollector
}

// NewPasswordHasher はPasswordHasherを生成する。
// costはbcryptの許容範囲に丸め、maxConcurrentが0以下の場合は1とする。
func NewPasswordHasher(cost, maxConcurrent int, mc metrics.MetricsCollector) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	return &PasswordHasher{
		cost:    cost,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		metrics: mc,
	}
}

// Hash は平文パスワードからソルト付きハッシュを生成する。
// 同じ平文でも呼び出しごとに異なるハッシュになる。
func (h *PasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" || len(plaintext) > maxPasswordBytes {
		return "", ErrInvalidPassword
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("failed to acquire hash slot: %w", err)
	}
	defer h.sem.Release(1)

	start := time.Now()
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	h.metrics.RecordPasswordHash(time.Since(start))
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify は平文パスワードが保存済みハッシュと一致するかを定数時間で判定する。
// 不一致、不正なハッシュ、コンテキストのキャンセルはいずれもfalseを返す。
func (h *PasswordHasher) Verify(ctx context.Context, plaintext, storedHash string) bool {
	if plaintext == "" || storedHash == "" {
		return false
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	start := time.Now()
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext))
	h.metrics.RecordPasswordHash(time.Since(start))
	return err == nil
}
