package model

import (
	"time"

	"gorm.io/gorm"
)

// PendingUser is a staged public registration awaiting e-mail verification.
type PendingUser struct {
	ID        uint   `gorm:"primarykey;autoIncrement"`
	TicketID  string `gorm:"uniqueIndex;size:36;not null"` // referenced by the verification token
	Username  string `gorm:"uniqueIndex;size:100;not null"`
	FullName  string `gorm:"size:100;not null"`
	Email     string `gorm:"uniqueIndex;size:256;not null"`
	Password  string `gorm:"size:64;not null"`
	EmpresaID string `gorm:"size:5;not null"`
	Approved  bool   `gorm:"default:false;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
