// models/gorm_models.go
package models

import (
	"time"
)

// GormSetting 设备本地设置 (device token, session token, display name, bookmarked room)
type GormSetting struct {
	Key       string `gorm:"column:name;primaryKey;size:64"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (GormSetting) TableName() string {
	return "settings"
}
