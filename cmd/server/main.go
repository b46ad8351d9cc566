package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/michael-borck/feed-forward-sub000/config"
	"github.com/michael-borck/feed-forward-sub000/internal/aiclient"
	"github.com/michael-borck/feed-forward-sub000/internal/api/handler"
	"github.com/michael-borck/feed-forward-sub000/internal/api/router"
	"github.com/michael-borck/feed-forward-sub000/internal/repository"
	"github.com/michael-borck/feed-forward-sub000/internal/service"
	"github.com/michael-borck/feed-forward-sub000/internal/worker"
	"github.com/michael-borck/feed-forward-sub000/pkg/database"
	"github.com/michael-borck/feed-forward-sub000/pkg/jwt"
	applogger "github.com/michael-borck/feed-forward-sub000/pkg/logger"
	"github.com/michael-borck/feed-forward-sub000/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与跨实例处理锁将降级", zap.Error(err))
		rdb = nil
	}

	// 5. JWT 管理器与凭据加密
	jwtMgr := jwt.NewManager(&cfg.Auth)

	cipher, err := aiclient.NewCredentialCipher(cfg.Auth.CredentialEncryptionKey)
	if err != nil {
		logger.Fatal("初始化凭据加密失败", zap.Error(err))
	}

	// 6. 依赖注入: Repository → AI 客户端 → Service → Handler
	repo := repository.NewRepository(db)

	evaluator := aiclient.NewClient(
		aiclient.NewRegistry(&http.Client{}),
		cipher,
		repo.ModelRun,
		aiclient.Options{
			RequestTimeout: cfg.AI.RequestTimeout,
			RetryAttempts:  cfg.AI.RetryAttempts,
			RetryBackoff:   cfg.AI.RetryBackoff,
		},
		logger,
	)

	// 处理中标记：多实例部署用 Redis SETNX，无 Redis 时退化为进程内互斥
	var registry service.ProcessingRegistry
	var blacklist service.TokenBlacklist
	if rdb != nil {
		registry = service.NewRedisRegistry(rdb, 2*cfg.AI.OverallDeadline)
		blacklist = rdb
	} else {
		registry = service.NewMemoryRegistry()
	}

	pool := worker.NewPool(cfg.Worker.PoolSize, cfg.Worker.QueueSize, logger)

	svc := service.NewService(cfg, repo, jwtMgr, blacklist, cipher, evaluator, registry, pool, logger)
	h := handler.NewHandler(svc)

	// 6.1 启动恢复：清掉上次进程崩溃遗留的处理中状态
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := registry.Sweep(startupCtx); err != nil {
		logger.Warn("清理残留处理标记失败", zap.Error(err))
	}
	if err := svc.Submission.RecoverOrphans(startupCtx); err != nil {
		logger.Warn("恢复滞留提交失败", zap.Error(err))
	}
	cancelStartup()

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 先停 HTTP 入口，再排空后台任务
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}
	pool.Shutdown(ctx)

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
