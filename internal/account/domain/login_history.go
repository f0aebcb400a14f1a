package domain

import "time"

const (
	LoginFail    int8 = 0
	LoginSuccess int8 = 1
)

type LoginHistory struct {
	ID    int       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID   int       `gorm:"column:uid;index:idx_uid_time;not null" json:"uid"`
	CTime time.Time `gorm:"column:ctime;autoCreateTime;index:idx_uid_time" json:"ctime"`
	IP    string    `gorm:"column:ip;type:varchar(50)" json:"ip"`
	State int8      `gorm:"column:state;default:1" json:"state"`
}

func (LoginHistory) TableName() string {
	return "login_history"
}
