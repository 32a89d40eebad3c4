package upstream

import "fmt"

// ErrorKind 区分上游访问失败的几种形态。
type ErrorKind string

const (
	// ErrorUnreachable 表示 DNS/连接/超时/TLS 等网络层故障，对外呈现为 404。
	ErrorUnreachable ErrorKind = "unreachable"
	// ErrorUnsupportedContentType 表示上游声明了无法处理的 Content-Type。
	ErrorUnsupportedContentType ErrorKind = "unsupported_content_type"
	// ErrorMissingParam 表示路由模板占位符缺少对应参数，属于配置错误。
	ErrorMissingParam ErrorKind = "missing_param"
	// ErrorInvalidResponse 表示上游以 2xx 返回了与端点语义不符的载荷。
	ErrorInvalidResponse ErrorKind = "invalid_response"
)

// Error 是上游客户端的类型化失败，Status 是对调用方呈现的 HTTP 状态。
type Error struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
