package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("ListenPort", "必须在 1-65535")
	}
	if g.DatabasePath == "" {
		return newFieldError("DatabasePath", "不能为空")
	}
	if g.ImageCachePath == "" {
		return newFieldError("ImageCachePath", "不能为空")
	}
	if g.AssetPath == "" {
		return newFieldError("AssetPath", "不能为空")
	}
	if g.JWTSecret == "" {
		return newFieldError("JWTSecret", "不能为空")
	}
	if g.TokenTTL.DurationValue() <= 0 {
		return newFieldError("TokenTTL", "必须大于 0")
	}

	if err := validateUpstream(c.Upstream); err != nil {
		return err
	}

	return nil
}

func validateUpstream(u UpstreamConfig) error {
	base := strings.TrimSpace(u.BaseURL)
	if base == "" {
		return newFieldError("Upstream.BaseURL", "不能为空")
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("Upstream.BaseURL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return newFieldError("Upstream.BaseURL", "仅支持 http/https")
	}
	if parsed.Host == "" {
		return newFieldError("Upstream.BaseURL", "缺少主机名")
	}

	if u.AuthKey == "" {
		return newFieldError("Upstream.AuthKey", "不能为空")
	}
	if u.Timeout.DurationValue() <= 0 {
		return newFieldError("Upstream.Timeout", "必须大于 0")
	}

	return nil
}
