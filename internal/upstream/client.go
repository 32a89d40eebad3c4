// Package upstream implements the authenticated HTTP client against the
// remote incubator provider. Responses are classified into a tagged
// ResponseKind; transport-level failures are deliberately masked as 404
// (ErrorUnreachable) so a provider outage degrades to "not found" instead of
// leaking a 5xx.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/incuhub/incuhub/internal/config"
)

// 共享 HTTP transport 参数，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

const authHeader = "X-Group-Authorization"

// Params 保存路由模板占位符到实际值的映射。
type Params map[string]string

// ResponseKind 是上游响应的显式分类标签。
type ResponseKind int

const (
	// KindJSON 表示 application/json 响应，载荷在 Result.JSON。
	KindJSON ResponseKind = iota
	// KindBinary 表示 image/* 响应，载荷在 Result.Body。
	KindBinary
)

// Result 是一次上游访问的瞬态产物，仅归产生它的调用所有。
type Result struct {
	Kind   ResponseKind
	Status int
	JSON   json.RawMessage
	Body   []byte
}

// OK 表示上游返回了 2xx。
func (r *Result) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Client 对远端 API 发起带共享密钥的 GET 请求。
type Client struct {
	http    *http.Client
	baseURL string
	authKey string
	logger  *logrus.Logger
}

// NewClient 构造上游客户端；Timeout 是唯一的存活性上界，必须显式配置。
func NewClient(cfg config.UpstreamConfig, logger *logrus.Logger) *Client {
	timeout := cfg.Timeout.DurationValue()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: defaultTransport.Clone(),
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		authKey: cfg.AuthKey,
		logger:  logger,
	}
}

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// ResolveRoute 将 params 代入路由模板的 {name} 占位符。
// 缺少占位符对应的值视为配置错误（ErrorMissingParam）。
func ResolveRoute(template string, params Params) (string, error) {
	var missing string
	resolved := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := params[name]
		if !ok || value == "" {
			if missing == "" {
				missing = name
			}
			return match
		}
		return value
	})
	if missing != "" {
		return "", &Error{
			Kind:   ErrorMissingParam,
			Status: http.StatusInternalServerError,
			Err:    fmt.Errorf("route %s: missing parameter %q", template, missing),
		}
	}
	return resolved, nil
}

// Fetch 解析路由模板并发起认证 GET，按 Content-Type 分类返回。
// 非 2xx 的 JSON 响应不是错误，原样返回供调用方透传。
func (c *Client) Fetch(ctx context.Context, template string, params Params) (*Result, error) {
	route, err := ResolveRoute(template, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+route, http.NoBody)
	if err != nil {
		return nil, &Error{Kind: ErrorMissingParam, Status: http.StatusInternalServerError, Err: err}
	}
	req.Header.Set(authHeader, c.authKey)
	req.Header.Set("Accept", "application/json, image/*")

	resp, err := c.http.Do(req)
	if err != nil {
		// 网络层故障统一降级为 404：对外不暴露基础设施状态。
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{
				"action": "upstream_fetch",
				"route":  route,
			}).WithError(err).Warn("upstream_unreachable")
		}
		return nil, &Error{Kind: ErrorUnreachable, Status: http.StatusNotFound, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: ErrorUnreachable, Status: http.StatusNotFound, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		return &Result{Kind: KindJSON, Status: resp.StatusCode, JSON: body}, nil
	case strings.HasPrefix(contentType, "image/"):
		return &Result{Kind: KindBinary, Status: resp.StatusCode, Body: body}, nil
	default:
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{
				"action":       "upstream_fetch",
				"route":        route,
				"content_type": contentType,
			}).Error("upstream_unsupported_content_type")
		}
		return nil, &Error{
			Kind:   ErrorUnsupportedContentType,
			Status: http.StatusInternalServerError,
			Err:    fmt.Errorf("route %s: unsupported content type %q", route, contentType),
		}
	}
}
