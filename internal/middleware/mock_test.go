package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/postboard/internal/metrics"
	"github.com/hitoshi/postboard/internal/model"
)

// --- Authenticator / AdminChecker モック ---

type mockAuthenticator struct {
	currentUserFn func(ctx context.Context, token string) (*model.User, error)
}

func (m *mockAuthenticator) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	return m.currentUserFn(ctx, token)
}

type mockAdminChecker struct {
	currentAdminUserFn func(user *model.User) (*model.User, error)
}

func (m *mockAdminChecker) CurrentAdminUser(user *model.User) (*model.User, error) {
	return m.currentAdminUserFn(user)
}

// --- MetricsCollector モック ---

type httpRequestRecord struct {
	method string
	route  string
	status int
}

type recordingCollector struct {
	mu           sync.Mutex
	requests     []httpRequestRecord
	authFailures []string
}

var _ metrics.MetricsCollector = (*recordingCollector)(nil)

func (c *recordingCollector) RecordHTTPRequest(method, route string, statusCode int, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, httpRequestRecord{method: method, route: route, status: statusCode})
}

func (c *recordingCollector) RecordAuthFailure(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authFailures = append(c.authFailures, reason)
}

func (c *recordingCollector) RecordTokenIssued(string)          {}
func (c *recordingCollector) RecordPasswordHash(time.Duration) {}
