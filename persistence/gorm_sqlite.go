// persistence/gorm_sqlite.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/wfunc/gameclient/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormSQLite 使用GORM的SQLite实现，数据存放在本机文件
type GormSQLite struct {
	db *gorm.DB
}

// NewGormSQLite opens (or creates) the sqlite file at path.
func NewGormSQLite(path string) (*GormSQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormSQLite{db: db}, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.GormSetting{})
}

// LoadSetting 读取设置
func (p *GormSQLite) LoadSetting(key string) (string, error) {
	var setting models.GormSetting
	if err := p.db.Where("name = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrRecordNotFound
		}
		return "", err
	}
	return setting.Value, nil
}

// SaveSetting 写入设置 (UPSERT)
func (p *GormSQLite) SaveSetting(key, value string) error {
	setting := models.GormSetting{Key: key, Value: value, UpdatedAt: time.Now()}
	return p.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}

// DeleteSetting 删除设置，不存在时视为成功
func (p *GormSQLite) DeleteSetting(key string) error {
	return p.db.Where("name = ?", key).Delete(&models.GormSetting{}).Error
}

// Close 关闭数据库连接
func (p *GormSQLite) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
