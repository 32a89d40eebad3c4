package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return path
}

const validConfigTOML = `
JWTSecret = "test-secret"

[Upstream]
BaseURL = "https://api.jeb-incubator.com"
AuthKey = "shared-key"
`

func TestParseCLIFlagsPriority(t *testing.T) {
	t.Setenv("INCUHUB_CONFIG", "/tmp/env.toml")

	opts, err := parseCLIFlags([]string{})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/env.toml" {
		t.Fatalf("应优先使用环境变量，得到 %s", opts.configPath)
	}

	opts, err = parseCLIFlags([]string{"--config", "/tmp/flag.toml"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/flag.toml" {
		t.Fatalf("flag 应高于环境变量，得到 %s", opts.configPath)
	}
}

func TestRunCheckConfigSuccess(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: writeConfigFixture(t, validConfigTOML), checkOnly: true})
	if code != 0 {
		t.Fatalf("期望退出码 0，得到 %d", code)
	}
}

func TestRunCheckConfigMissingFile(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: filepath.Join(t.TempDir(), "missing.toml"), checkOnly: true})
	if code == 0 {
		t.Fatalf("缺失配置应返回非零退出码")
	}
}

func TestRunCheckConfigRejectsIncomplete(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{
		configPath: writeConfigFixture(t, "JWTSecret = \"test-secret\"\n"),
		checkOnly:  true,
	})
	if code == 0 {
		t.Fatalf("缺少上游配置应返回非零退出码")
	}
	if !strings.Contains(stdErrBuffer().String(), "配置") {
		t.Fatalf("应输出配置错误信息: %s", stdErrBuffer().String())
	}
}

func TestRunVersionOutput(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{showVersion: true})
	if code != 0 {
		t.Fatalf("version 模式应成功退出，得到 %d", code)
	}
	if !strings.Contains(stdOut.(*bytes.Buffer).String(), "incuhub") {
		t.Fatalf("version 输出应包含 incuhub 标识")
	}
}
