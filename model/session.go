package model

import "time"

// UserSession is one live login tracked in the tenant database. Deleting the
// row is the only revocation mechanism; there is no soft-delete flag.
type UserSession struct {
	ID           uint      `gorm:"primarykey;autoIncrement"`
	SessionToken string    `gorm:"uniqueIndex;size:64;not null"` // hex(32 random bytes)
	UserID       uint      `gorm:"index;not null"`
	EmpresaID    string    `gorm:"size:5;index"`
	IPAddress    string    `gorm:"size:45"` // IPv4/IPv6
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	LastActivity time.Time `gorm:"autoCreateTime;index"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}
