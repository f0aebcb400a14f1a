package domain

import "time"

const (
	StatusActive   = 1
	StatusDisabled = 0
)

type Account struct {
	UID      int       `gorm:"column:uid;primaryKey;autoIncrement" json:"uid"`
	Username string    `gorm:"column:username;type:varchar(20);uniqueIndex;not null" json:"username"`
	Salt     string    `gorm:"column:salt;type:varchar(64)" json:"-"`
	Passwd   string    `gorm:"column:passwd;type:varchar(255)" json:"-"`
	Status   int       `gorm:"column:status;default:1" json:"status"`
	Ctime    time.Time `gorm:"column:ctime;autoCreateTime" json:"ctime"`
	Mtime    time.Time `gorm:"column:mtime;autoUpdateTime" json:"mtime"`
}

func (Account) TableName() string {
	return "account"
}

// CheckPassword verifies the plaintext against the stored hash; the hasher
// is injected so the domain stays free of crypto imports.
func (a Account) CheckPassword(pwd string, hash func(plaintext, salt string) string) bool {
	if pwd == "" {
		return false
	}
	return hash(pwd, a.Salt) == a.Passwd
}

func (a Account) Disabled() bool {
	return a.Status != StatusActive
}
