package users

import (
	"context"

	"github.com/jobers/backend/internal/tenants"
	"github.com/jobers/backend/model"
)

type UserRepository interface {
	GetByID(ctx context.Context, connectionID string, userID uint) (*model.User, error)
	GetByUsername(ctx context.Context, connectionID string, username string) (*model.User, error)
	Create(ctx context.Context, connectionID string, user *model.User) error
	Updates(ctx context.Context, connectionID string, userID uint, columns map[string]interface{}) (int64, error)
}

type userRepository struct {
	tenants *tenants.Registry
}

func (r *userRepository) GetByID(ctx context.Context, connectionID string, userID uint) (*model.User, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, connectionID string, username string) (*model.User, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, connectionID string, user *model.User) error {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return err
	}
	return db.Create(user).Error
}

func (r *userRepository) Updates(ctx context.Context, connectionID string, userID uint, columns map[string]interface{}) (int64, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return 0, err
	}
	res := db.Model(&model.User{}).Where("id = ?", userID).Updates(columns)
	return res.RowsAffected, res.Error
}

func NewUserRepository(tenants *tenants.Registry) UserRepository {
	return &userRepository{tenants}
}
