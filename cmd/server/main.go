package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/focuslog/internal/cache"
	"github.com/focuslog/internal/config"
	"github.com/focuslog/internal/db"
	"github.com/focuslog/internal/handler"
	"github.com/focuslog/internal/logger"
	"github.com/focuslog/internal/metrics"
	"github.com/focuslog/internal/router"
	"github.com/focuslog/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.LogPath)
	defer log.Sync()

	metrics.Register()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	gdb, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}

	// redis 是可选依赖：连不上就退化为无缓存
	var responseCache *cache.Cache
	if cfg.RedisAddr != "" {
		responseCache, err = cache.Connect(cfg.RedisAddr, log)
		if err != nil {
			log.Warn("redis unavailable, response cache disabled", zap.Error(err))
			responseCache = nil
		} else {
			defer responseCache.Close()
		}
	}

	// 提醒扫描按配置的 cron 表达式启动
	reminders := service.NewReminderService(gdb, log)
	if cfg.ReminderCron != "" {
		if err := reminders.Start(cfg.ReminderCron); err != nil {
			log.Fatal("failed to start reminder scheduler", zap.Error(err))
		}
		defer reminders.Stop()
	}

	api := handler.NewAPI(gdb, log, cfg.UploadDir, cfg.UploadURLPath)
	engine := router.SetupRouter(api, log, cfg, responseCache)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: engine,
	}

	go func() {
		log.Info("server listening", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}
