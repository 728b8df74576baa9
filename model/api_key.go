package model

import "time"

// ApiKey grants header-based access for external integrations, bypassing the
// cookie session. Keys share the session token format: hex(32 random bytes).
type ApiKey struct {
	ID        uint   `gorm:"primarykey;autoIncrement"`
	UserID    uint   `gorm:"index;not null"`
	ApiKey    string `gorm:"uniqueIndex;size:64;not null"`
	Nombre    string `gorm:"size:100;not null"`
	Activo    bool   `gorm:"default:true;not null"`
	CreatedAt time.Time
}

func (ApiKey) TableName() string {
	return "api_keys"
}
