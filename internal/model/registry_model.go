package model

import (
	"time"
)

// RegistryStateModel 账本全局状态（单行表）：id 计数器与管理员身份
type RegistryStateModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	UpdatedAt time.Time `json:"updated_at"`

	NextId int64  `json:"next_id" gorm:"not null"`
	Admin  string `json:"admin" gorm:"not null"`
}

// RegistryStateId 单行主键固定为 1
const RegistryStateId int64 = 1

// TableName 自定义表名
func (RegistryStateModel) TableName() string {
	return "registry_state"
}
