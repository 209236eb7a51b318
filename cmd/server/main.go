package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/user/yamdb/internal/authcode"
	"github.com/user/yamdb/internal/config"
	"github.com/user/yamdb/internal/handler"
	"github.com/user/yamdb/internal/logger"
	"github.com/user/yamdb/internal/mailer"
	"github.com/user/yamdb/internal/ratelimit"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/router"
)

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg := config.Load()
	appLogger := logger.New(cfg.LogLevel, cfg.LogFilePath)

	// 初始化数据库
	db, err := repository.InitDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	// 初始化仓库
	repos := repository.NewRepositories(db)

	// 确认码与限流：配置了 Redis 时共享存储，否则退化为进程内存储且不限流
	var (
		codes   authcode.Store
		limiter ratelimit.Limiter = ratelimit.Unlimited{}
	)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("Redis 连接失败: %v", err)
		}
		cancel()

		redisCodes, err := authcode.NewRedisStore(client, "yamdb:confirmation", cfg.ConfirmationCodeTTL)
		if err != nil {
			log.Fatalf("确认码存储初始化失败: %v", err)
		}
		codes = redisCodes

		if cfg.SignupRateLimit > 0 {
			redisLimiter, err := ratelimit.NewRedisFixedWindowLimiter(client, "yamdb:ratelimit", cfg.SignupRateLimit, time.Minute)
			if err != nil {
				log.Fatalf("限流器初始化失败: %v", err)
			}
			limiter = redisLimiter
		}
	} else {
		appLogger.Warn("未配置 REDIS_ADDR，确认码保存在进程内存中")
		codes = authcode.NewMemoryStore(cfg.ConfirmationCodeTTL)
	}

	// 初始化 Gin
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handler.NewHandler(repos, cfg, codes, mailer.NewLogMailer(cfg.MailFrom, appLogger), appLogger)
	r, err := router.New(h, limiter, appLogger)
	if err != nil {
		log.Fatalf("路由初始化失败: %v", err)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		appLogger.Info("服务器启动", "addr", "http://localhost:"+cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("正在关闭服务器...")

	// 5 秒超时上下文用于关闭过程
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("服务器强制关闭:", err)
	}

	appLogger.Info("服务器已退出")
}
