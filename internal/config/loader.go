package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	applyUpstreamDefaults(&cfg.Upstream)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 路径统一转为绝对路径，避免工作目录变化导致缓存/库漂移。
	for _, field := range []*string{
		&cfg.Global.DatabasePath,
		&cfg.Global.ImageCachePath,
		&cfg.Global.AssetPath,
	} {
		abs, err := filepath.Abs(*field)
		if err != nil {
			return nil, fmt.Errorf("无法解析存储路径: %w", err)
		}
		*field = abs
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 8000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 3)
	v.SetDefault("LogCompress", true)
	v.SetDefault("DatabasePath", "incuhub.db")
	v.SetDefault("ImageCachePath", "cache/images")
	v.SetDefault("AssetPath", "static/images")
	v.SetDefault("TokenTTL", "42m")
	v.SetDefault("Upstream.Timeout", "30s")
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 8000
	}
	if g.LogLevel == "" {
		g.LogLevel = "info"
	}
	if g.TokenTTL.DurationValue() <= 0 {
		g.TokenTTL = Duration(42 * time.Minute)
	}
}

func applyUpstreamDefaults(u *UpstreamConfig) {
	if u.Timeout.DurationValue() <= 0 {
		u.Timeout = Duration(30 * time.Second)
	}
}

// durationDecodeHook 让 mapstructure 能将字符串/整数映射到 config.Duration。
func durationDecodeHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(Duration(0)) {
			return data, nil
		}

		switch value := data.(type) {
		case string:
			var d Duration
			if err := d.UnmarshalText([]byte(value)); err != nil {
				return nil, err
			}
			return d, nil
		case int, int32, int64, float64:
			seconds := reflect.ValueOf(value).Convert(reflect.TypeOf(int64(0))).Int()
			return Duration(time.Duration(seconds) * time.Second), nil
		default:
			return data, nil
		}
	}
}
