package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// 迁移脚本随二进制一同分发，部署时无需携带 SQL 文件
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations 将数据库结构迁移到最新版本。
// 幂等：已是最新时不做任何改动。
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("读取内嵌迁移脚本失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("初始化迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("构建迁移实例失败: %w", err)
	}

	err = m.Up()
	switch {
	case err == nil:
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("数据库结构已是最新，无迁移可应用")
	default:
		return fmt.Errorf("应用迁移失败: %w", err)
	}

	version, dirty, verr := m.Version()
	if errors.Is(verr, migrate.ErrNilVersion) {
		logger.Info("数据库尚无迁移记录")
		return nil
	}
	if dirty {
		// 上次迁移中途失败，需要人工介入修复后才能继续
		logger.Warn("迁移处于 dirty 状态", zap.Uint("version", version))
		return nil
	}

	logger.Info("数据库结构已就绪", zap.Uint("version", version))
	return nil
}
