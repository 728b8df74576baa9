package model

import (
	"time"

	"gorm.io/gorm"
)

// Role names, ordered by privilege. Higher roles inherit lower role access.
const (
	RolUsuario       = "usuario"
	RolAdministrador = "administrador"
	RolSuperusuario  = "superusuario"
)

var roleLevels = map[string]int{
	RolUsuario:       1,
	RolAdministrador: 2,
	RolSuperusuario:  3,
}

// RoleLevel returns the numeric privilege level of a role name, 0 for unknown roles.
func RoleLevel(rol string) int {
	return roleLevels[rol]
}

// User stores user account information
type User struct {
	ID                  uint   `gorm:"primarykey"`
	Username            string `gorm:"uniqueIndex;size:100;not null"`
	FullName            string `gorm:"size:100;not null"`
	Email               string `gorm:"uniqueIndex;size:256;not null"`
	Password            string `gorm:"size:64;not null"`
	Rol                 string `gorm:"size:20;not null;default:usuario"`
	EmpresaID           string `gorm:"size:5;not null;index"`
	ClienteID           *uint  `gorm:"index"`
	Active              bool   `gorm:"default:true;not null"`
	DebeCambiarPassword bool   `gorm:"default:false;not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == 0 {
		u.ID = GenerateID()
	}
	return nil
}

func (u *User) IsAdministrador() bool {
	return u.Rol == RolAdministrador || u.Rol == RolSuperusuario
}

func (u *User) IsSuperusuario() bool {
	return u.Rol == RolSuperusuario
}

// HasRole reports whether the user holds at least the required role.
func (u *User) HasRole(required string) bool {
	return RoleLevel(u.Rol) >= RoleLevel(required)
}
