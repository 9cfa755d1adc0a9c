// Package api 提供运维用的 HTTP 端点（健康检查）。
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"staffbot/config"
	"staffbot/pkg/redis"
)

// NewHealthServer 构建健康检查 HTTP 服务。
// redisClient 为 nil 时跳过 Redis 检查（降级运行模式）
func NewHealthServer(
	cfg *config.HealthConfig,
	db *gorm.DB,
	redisClient *redis.Client,
	logger *zap.Logger,
) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		checks := gin.H{}

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			status = http.StatusServiceUnavailable
			checks["database"] = err.Error()
		} else {
			checks["database"] = "ok"
		}

		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()); err != nil {
				status = http.StatusServiceUnavailable
				checks["redis"] = err.Error()
			} else {
				checks["redis"] = "ok"
			}
		} else {
			checks["redis"] = "disabled"
		}

		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
	})

	logger.Info("健康检查端点已注册", zap.Int("port", cfg.Port))

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}
