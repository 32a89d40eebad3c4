package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/incuhub/incuhub/internal/auth"
	"github.com/incuhub/incuhub/internal/blob"
	"github.com/incuhub/incuhub/internal/config"
	"github.com/incuhub/incuhub/internal/logging"
	"github.com/incuhub/incuhub/internal/mirror"
	"github.com/incuhub/incuhub/internal/server"
	"github.com/incuhub/incuhub/internal/storage"
	"github.com/incuhub/incuhub/internal/upstream"
	"github.com/incuhub/incuhub/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["upstream"] = cfg.Upstream.BaseURL
		fields["auth"] = cfg.Upstream.AuthMode()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序固定为“配置 → 存储 → 图像缓存 → 上游客户端 → 路由”，
	// 让所有请求共享同一份镜像实例。
	store, err := storage.Open(cfg.Global.DatabasePath)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化数据库失败: %v\n", err)
		return 1
	}
	defer store.Close()

	blobs, err := blob.NewStore(cfg.Global.ImageCachePath)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化图像缓存失败: %v\n", err)
		return 1
	}

	if err := os.MkdirAll(cfg.Global.AssetPath, 0o755); err != nil {
		fmt.Fprintf(stdErr, "初始化资产目录失败: %v\n", err)
		return 1
	}

	client := upstream.NewClient(cfg.Upstream, logger)
	registry := mirror.NewRegistry(mirror.Deps{
		Client: client,
		Store:  store,
		Logger: logger,
		Group:  new(singleflight.Group),
	}, blobs)
	authService := auth.NewService(cfg.Global.JWTSecret,
		cfg.Global.TokenTTL.DurationValue(), store)

	fields := logging.BaseFields("startup", opts.configPath)
	fields["upstream"] = cfg.Upstream.BaseURL
	fields["listen_port"] = cfg.Global.ListenPort
	fields["database"] = cfg.Global.DatabasePath
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, registry, authService, store, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("incuhub", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 INCUHUB_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("INCUHUB_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

func startHTTPServer(cfg *config.Config, registry *mirror.Registry, authService *auth.Service, store *storage.Store, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Registry:   registry,
		Auth:       authService,
		Store:      store,
		AssetPath:  cfg.Global.AssetPath,
		ListenPort: port,
	})
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
