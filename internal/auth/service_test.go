package auth

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/incuhub/incuhub/internal/schema"
	"github.com/incuhub/incuhub/internal/storage"
)

func newTestService(t *testing.T, ttl time.Duration) (*Service, *storage.Store) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("打开数据库失败: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewService("test-secret", ttl, store), store
}

func seedUser(t *testing.T, store *storage.Store) schema.User {
	t.Helper()
	user := schema.User{ID: 11, Email: "alice@incuhub.io", Name: "Alice", Role: "founder"}
	if err := store.InsertUser(context.Background(), user); err != nil {
		t.Fatalf("写入用户失败: %v", err)
	}
	return user
}

func TestIssueAndResolveToken(t *testing.T) {
	service, store := newTestService(t, time.Hour)
	seeded := seedUser(t, store)

	token, err := service.IssueToken(seeded.ID, seeded.Email)
	if err != nil {
		t.Fatalf("签发令牌失败: %v", err)
	}

	user, err := service.CurrentUser(context.Background(), "Bearer "+token)
	if err != nil {
		t.Fatalf("解析令牌失败: %v", err)
	}
	if user.ID != seeded.ID || user.Email != seeded.Email {
		t.Fatalf("解析出的用户不符: %+v", user)
	}
}

func TestCurrentUserRejectsMalformedHeader(t *testing.T) {
	service, _ := newTestService(t, time.Hour)

	cases := []struct {
		name   string
		header string
	}{
		{"空头", ""},
		{"无 Bearer 前缀", "Token abc"},
		{"只有前缀", "Bearer "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.CurrentUser(context.Background(), tc.header)
			var aerr *Error
			if !errors.As(err, &aerr) || aerr.Status != http.StatusUnauthorized {
				t.Fatalf("期望 401, 实际: %v", err)
			}
			if aerr.Detail != "No token, authorization denied" {
				t.Fatalf("错误详情不符: %s", aerr.Detail)
			}
		})
	}
}

func TestCurrentUserRejectsExpiredToken(t *testing.T) {
	service, store := newTestService(t, -time.Minute)
	seeded := seedUser(t, store)

	token, err := service.IssueToken(seeded.ID, seeded.Email)
	if err != nil {
		t.Fatalf("签发令牌失败: %v", err)
	}

	_, err = service.CurrentUser(context.Background(), "Bearer "+token)
	var aerr *Error
	if !errors.As(err, &aerr) || aerr.Detail != "Token has expired" {
		t.Fatalf("期望过期错误, 实际: %v", err)
	}
}

func TestCurrentUserRejectsForgedToken(t *testing.T) {
	service, store := newTestService(t, time.Hour)
	forger := NewService("other-secret", time.Hour, store)
	seeded := seedUser(t, store)

	token, err := forger.IssueToken(seeded.ID, seeded.Email)
	if err != nil {
		t.Fatalf("签发令牌失败: %v", err)
	}

	_, err = service.CurrentUser(context.Background(), "Bearer "+token)
	var aerr *Error
	if !errors.As(err, &aerr) || aerr.Detail != "Invalid token" {
		t.Fatalf("期望无效令牌错误, 实际: %v", err)
	}
}

func TestCurrentUserUnknownUserIs404(t *testing.T) {
	service, _ := newTestService(t, time.Hour)

	token, err := service.IssueToken(99, "ghost@incuhub.io")
	if err != nil {
		t.Fatalf("签发令牌失败: %v", err)
	}

	_, err = service.CurrentUser(context.Background(), "Bearer "+token)
	var aerr *Error
	if !errors.As(err, &aerr) || aerr.Status != http.StatusNotFound {
		t.Fatalf("期望 404, 实际: %v", err)
	}
	if aerr.Detail != "User not found from token" {
		t.Fatalf("错误详情不符: %s", aerr.Detail)
	}
}
