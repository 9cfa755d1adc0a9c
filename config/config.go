package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Health    HealthConfig    `mapstructure:"health"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// BotConfig Telegram 机器人配置
type BotConfig struct {
	Token string `mapstructure:"token"`
	// 管理员的 Telegram 用户 ID 列表；管理员身份仅由此列表决定
	AdminIDs []int64 `mapstructure:"admin_ids"`
	// 工作群 / 通知频道的静态兜底目标；数据库中的同名设置优先生效
	WorkGroupID           int64  `mapstructure:"work_group_id"`
	NotificationChannelID int64  `mapstructure:"notification_channel_id"`
	Timezone              string `mapstructure:"timezone"`
}

// IsAdmin 判断用户是否为管理员（仅检查配置中的管理员列表）
func (c *BotConfig) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

// Location 解析机器人所在时区；解析失败时回退到系统本地时区
func (c *BotConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Name         string `mapstructure:"name"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	SSLMode      string `mapstructure:"sslmode"`
	Timezone     string `mapstructure:"timezone"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（对话状态存储）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HealthConfig 健康检查 HTTP 端点配置
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// SchedulerConfig 每周可用性提醒的触发时刻
type SchedulerConfig struct {
	Weekday int    `mapstructure:"weekday"` // 0=周日 ... 6=周六
	Time    string `mapstructure:"time"`    // HH:MM
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.admin_ids", []int64{})
	v.SetDefault("bot.work_group_id", 0)
	v.SetDefault("bot.notification_channel_id", 0)
	v.SetDefault("bot.timezone", "Asia/Shanghai")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "staffbot")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Shanghai")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8080)

	v.SetDefault("scheduler.weekday", 0) // 周日
	v.SetDefault("scheduler.time", "10:00")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("STAFFBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("配置校验失败: bot.token 不能为空")
	}
	if c.Scheduler.Weekday < 0 || c.Scheduler.Weekday > 6 {
		return fmt.Errorf("配置校验失败: scheduler.weekday 必须在 0-6 之间")
	}
	if _, err := time.Parse("15:04", c.Scheduler.Time); err != nil {
		return fmt.Errorf("配置校验失败: scheduler.time 必须为 HH:MM 格式")
	}
	if c.Health.Enabled && (c.Health.Port <= 0 || c.Health.Port > 65535) {
		return fmt.Errorf("配置校验失败: health.port 必须在 1-65535 之间")
	}
	return nil
}
