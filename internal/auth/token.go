package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/postboard/internal/metrics"
)

// ErrInvalidToken はトークン検証の失敗を表す。
// 署名不一致・期限切れ・形式不正などの内訳は呼び出し元に区別させない。
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenKind はトークンの種別。
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// TokenPayload はトークンに埋め込むクレーム。
// Adminは発行時点のスナップショットであり、後の権限変更は反映されない。
type TokenPayload struct {
	UserID    string    `json:"user_id"`
	Admin     bool      `json:"admin"`
	ExpTime   int64     `json:"exp_time,omitempty"`
	IssTime   int64     `json:"iss_time,omitempty"`
	TokenType TokenKind `json:"token_type,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

// tokenClaims はTokenPayloadをjwt.Claimsとして扱うためのラッパー。
// 有効期限はexp_timeクレームで表現する。
type tokenClaims struct {
	TokenPayload
}

func (c tokenClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.ExpTime == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.ExpTime, 0)), nil
}

func (c tokenClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	if c.IssTime == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.IssTime, 0)), nil
}

func (c tokenClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c tokenClaims) GetIssuer() (string, error)              { return "", nil }
func (c tokenClaims) GetSubject() (string, error)             { return c.UserID, nil }
func (c tokenClaims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

// TokenConfig はトークン発行・検証の設定。起動時に1回だけ構築する。
type TokenConfig struct {
	Secret     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now は現在時刻を返す。nilの場合はtime.Nowを使用する。
	Now func() time.Time
}

// TokenService は署名付きトークンの発行と検証を行う。
// 共有する可変状態を持たないため、並行に呼び出してよい。
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
	metrics    metrics.MetricsCollector
}

// NewTokenService はTokenServiceを生成する。
// 秘密鍵が空、未対応のアルゴリズム、0以下の有効期間はエラーとする。
func NewTokenService(cfg TokenConfig, mc metrics.MetricsCollector) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret must not be empty")
	}

	var method jwt.SigningMethod
	switch cfg.Algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm: %q", cfg.Algorithm)
	}

	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive (access=%s, refresh=%s)", cfg.AccessTTL, cfg.RefreshTTL)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if mc == nil {
		mc = metrics.NopCollector{}
	}

	return &TokenService{
		secret:     []byte(cfg.Secret),
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{method.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(now),
		),
		metrics: mc,
	}, nil
}

// AccessTTL はアクセストークンの有効期間を返す。
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// Issue はpayloadに種別・発行時刻・有効期限を付与して署名したトークンを返す。
// payload側のExpTime、IssTime、TokenType、IDは上書きされる。
func (s *TokenService) Issue(payload TokenPayload, lifetime time.Duration, kind TokenKind) (string, error) {
	if lifetime <= 0 {
		return "", fmt.Errorf("token lifetime must be positive: %s", lifetime)
	}

	now := s.now()
	claims := tokenClaims{TokenPayload: payload}
	claims.IssTime = now.Unix()
	claims.ExpTime = now.Add(lifetime).Unix()
	claims.TokenType = kind
	claims.ID = uuid.NewString()

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	s.metrics.RecordTokenIssued(string(kind))
	return signed, nil
}

// IssueAccess は短期間有効なアクセストークンを発行する。
func (s *TokenService) IssueAccess(payload TokenPayload) (string, error) {
	return s.Issue(payload, s.accessTTL, KindAccess)
}

// IssueRefresh は長期間有効なリフレッシュトークンを発行する。
func (s *TokenService) IssueRefresh(payload TokenPayload) (string, error) {
	return s.Issue(payload, s.refreshTTL, KindRefresh)
}

// Verify は署名・アルゴリズム・有効期限を検証し、クレームを返す。
// 失敗理由はメトリクスにのみ記録し、戻り値は常にErrInvalidTokenとする。
func (s *TokenService) Verify(token string) (*TokenPayload, error) {
	if strings.TrimSpace(token) == "" {
		s.metrics.RecordAuthFailure(metrics.ReasonInvalidToken)
		return nil, ErrInvalidToken
	}

	claims := &tokenClaims{}
	parsed, err := s.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.metrics.RecordAuthFailure(metrics.ReasonExpired)
		} else {
			s.metrics.RecordAuthFailure(metrics.ReasonInvalidToken)
		}
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" || (claims.TokenType != KindAccess && claims.TokenType != KindRefresh) {
		s.metrics.RecordAuthFailure(metrics.ReasonInvalidToken)
		return nil, ErrInvalidToken
	}

	payload := claims.TokenPayload
	return &payload, nil
}
