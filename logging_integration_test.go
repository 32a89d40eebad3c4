package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestLoggingFallbackToStdout(t *testing.T) {
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.Mkdir(blocked, 0o755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if err := os.Chmod(blocked, 0o000); err != nil {
		t.Fatalf("设置目录权限失败: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(blocked, 0o755) })

	logPath := filepath.Join(blocked, "sub", "incuhub.log")
	configPath := writeConfigFixture(t, fmt.Sprintf(`
LogLevel = "info"
LogFilePath = "%s"
JWTSecret = "test-secret"

[Upstream]
BaseURL = "https://api.jeb-incubator.com"
AuthKey = "shared-key"
`, logPath))

	useBufferWriters(t)
	code := run(cliOptions{configPath: configPath, checkOnly: true})
	if code != 0 {
		t.Fatalf("日志 fallback 不应导致失败，得到 %d", code)
	}
}
