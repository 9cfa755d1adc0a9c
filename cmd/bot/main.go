package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"staffbot/config"
	"staffbot/internal/api"
	"staffbot/internal/bot"
	"staffbot/internal/repository"
	"staffbot/internal/scheduler"
	"staffbot/internal/service"
	"staffbot/pkg/database"
	applogger "staffbot/pkg/logger"
	"staffbot/pkg/redis"
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

	logger.Info("应用启动中...", zap.String("log_level", cfg.Log.Level))

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, logger)
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

	// 4. 连接 Redis（可选：连接失败时对话状态降级到内存存储）
	var states bot.DialogStore
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，对话状态降级到内存存储（重启后丢失）", zap.Error(err))
		rdb = nil
		states = bot.NewMemoryDialogStore()
	} else {
		states = bot.NewRedisDialogStore(rdb)
	}

	// 5. 依赖注入: Repository → Service → Bot
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, logger)

	tgBot, err := bot.New(cfg, svc, states, logger)
	if err != nil {
		logger.Fatal("初始化 Telegram 机器人失败", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. 每周可用性提醒触发器
	hour, minute, err := parseClock(cfg.Scheduler.Time)
	if err != nil {
		logger.Fatal("解析触发时刻失败", zap.Error(err))
	}
	trigger := scheduler.NewWeeklyTrigger(
		time.Weekday(cfg.Scheduler.Weekday), hour, minute,
		cfg.Bot.Location(), tgBot.SendWeeklyAvailabilityPrompt, logger,
	)
	go func() {
		if err := trigger.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("每周触发器退出", zap.Error(err))
		}
	}()

	// 7. 健康检查端点
	var healthSrv *http.Server
	if cfg.Health.Enabled {
		healthSrv = api.NewHealthServer(&cfg.Health, db, rdb, logger)
		go func() {
			logger.Info("健康检查服务已启动", zap.String("addr", healthSrv.Addr))
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("健康检查服务异常", zap.Error(err))
			}
		}()
	}

	// 8. 启动更新循环
	go func() {
		logger.Info("Telegram 更新循环已启动")
		if err := tgBot.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Fatal("更新循环异常退出", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	cancel()

	if healthSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("健康检查服务关闭异常", zap.Error(err))
		}
	}

	// 关闭数据库连接
	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("应用已关闭")
}

// parseClock 解析 HH:MM
func parseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("时刻格式应为 HH:MM，实际为 %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("小时非法: %q", parts[0])
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("分钟非法: %q", parts[1])
	}
	return hour, minute, nil
}
