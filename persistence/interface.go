// persistence/interface.go
package persistence

import (
	"fmt"
)

// Database 设备本地持久化接口
type Database interface {
	LoadSetting(key string) (string, error)
	SaveSetting(key, value string) error
	DeleteSetting(key string) error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
