// Package auth implements the bearer-token seam for locally-owned endpoints.
// Tokens are HS256 JWTs carrying the local user id and email; verification
// resolves the id against storage so revoked rows immediately lose access.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/incuhub/incuhub/internal/schema"
	"github.com/incuhub/incuhub/internal/storage"
)

// Error 是认证失败的类型化结果，Status 与 Detail 直接用于 HTTP 响应。
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("auth: %s", e.Detail)
}

var (
	errNoToken      = &Error{Status: http.StatusUnauthorized, Detail: "No token, authorization denied"}
	errTokenExpired = &Error{Status: http.StatusUnauthorized, Detail: "Token has expired"}
	errTokenInvalid = &Error{Status: http.StatusUnauthorized, Detail: "Invalid token"}
	errBadClaims    = &Error{Status: http.StatusUnauthorized, Detail: "Token is not valid"}
	errUserMissing  = &Error{Status: http.StatusNotFound, Detail: "User not found from token"}
)

type claims struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service 负责令牌签发与校验。
type Service struct {
	secret []byte
	ttl    time.Duration
	store  *storage.Store
}

// NewService 构造认证服务；ttl 是新签发令牌的有效期。
func NewService(secret string, ttl time.Duration, store *storage.Store) *Service {
	return &Service{secret: []byte(secret), ttl: ttl, store: store}
}

// IssueToken 为本地用户签发带过期时间的访问令牌。
func (s *Service) IssueToken(id int, email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		ID:    id,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return signed, nil
}

// CurrentUser 从 Authorization 头解析 Bearer 令牌并解析出本地用户。
// 所有失败路径都返回 *Error，由路由层直接映射为 HTTP 响应。
func (s *Service) CurrentUser(ctx context.Context, authorization string) (*schema.User, error) {
	tokenStr, ok := bearerToken(authorization)
	if !ok {
		return nil, errNoToken
	}

	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errTokenExpired
		}
		return nil, errTokenInvalid
	}
	if !token.Valid || c.ID <= 0 {
		return nil, errBadClaims
	}

	user, err := s.store.GetUser(ctx, c.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errUserMissing
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func bearerToken(authorization string) (string, bool) {
	if authorization == "" {
		return "", false
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
