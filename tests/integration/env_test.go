package integration

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/incuhub/incuhub/internal/auth"
	"github.com/incuhub/incuhub/internal/blob"
	"github.com/incuhub/incuhub/internal/config"
	"github.com/incuhub/incuhub/internal/mirror"
	"github.com/incuhub/incuhub/internal/server"
	"github.com/incuhub/incuhub/internal/storage"
	"github.com/incuhub/incuhub/internal/upstream"
)

// testEnv 搭建一套贯穿路由、镜像、存储与图像缓存的完整环境。
type testEnv struct {
	app          *fiber.App
	store        *storage.Store
	auth         *auth.Service
	upstreamHits *atomic.Int64
	imageDir     string
	assetDir     string
}

func newEnv(t *testing.T, upstreamHandler http.HandlerFunc) *testEnv {
	t.Helper()

	var hits atomic.Int64
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("X-Group-Authorization") == "" {
			t.Errorf("上游请求缺少认证头")
		}
		upstreamHandler(w, r)
	}))
	t.Cleanup(stub.Close)

	store, err := storage.Open(filepath.Join(t.TempDir(), "integration.db"))
	if err != nil {
		t.Fatalf("打开数据库失败: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	imageDir := t.TempDir()
	blobs, err := blob.NewStore(imageDir)
	if err != nil {
		t.Fatalf("创建图像缓存失败: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client := upstream.NewClient(config.UpstreamConfig{
		BaseURL: stub.URL,
		AuthKey: "integration-key",
		Timeout: config.Duration(5 * time.Second),
	}, logger)
	registry := mirror.NewRegistry(mirror.Deps{
		Client: client,
		Store:  store,
		Logger: logger,
		Group:  new(singleflight.Group),
	}, blobs)
	authService := auth.NewService("integration-secret", time.Hour, store)

	assetDir := t.TempDir()
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Registry:   registry,
		Auth:       authService,
		Store:      store,
		AssetPath:  assetDir,
		ListenPort: 8000,
	})
	if err != nil {
		t.Fatalf("构建应用失败: %v", err)
	}

	return &testEnv{
		app:          app,
		store:        store,
		auth:         authService,
		upstreamHits: &hits,
		imageDir:     imageDir,
		assetDir:     assetDir,
	}
}

func (env *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("请求 %s 失败: %v", path, err)
	}
	return resp
}
