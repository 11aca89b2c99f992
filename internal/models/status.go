package models

import "opinions/internal/enums"

// Status 状态表，迁移时按原子状态一一写入，之后不再修改
type Status struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"size:32;not null;unique" json:"name"`
}

// StatusOf 构造只带名字的状态，写库前由存储层补全 ID
func StatusOf(s enums.Status) Status {
	return Status{Name: s.Display()}
}

// State 还原为枚举，未知名字返回 0
func (s Status) State() enums.Status {
	st, _ := enums.StatusFromName(s.Name)
	return st
}
