package users

import (
	"context"

	"github.com/jobers/backend/internal/tenants"
	"github.com/jobers/backend/model"
)

type PendingUserRepository interface {
	GetByTicketID(ctx context.Context, ticketID string) (*model.PendingUser, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.PendingUser, error)
	Create(ctx context.Context, pending *model.PendingUser) error
	Delete(ctx context.Context, id uint) error
}

// pendingUserRepository lives on the central database; registrations are not
// tenant-routed until approved.
type pendingUserRepository struct {
	tenants *tenants.Registry
}

func (r *pendingUserRepository) GetByTicketID(ctx context.Context, ticketID string) (*model.PendingUser, error) {
	var pending model.PendingUser
	err := r.tenants.Central(ctx).Where("ticket_id = ?", ticketID).First(&pending).Error
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *pendingUserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.PendingUser, error) {
	var pending model.PendingUser
	err := r.tenants.Central(ctx).
		Where("username = ?", username).
		Or("email = ?", email).
		First(&pending).Error
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *pendingUserRepository) Create(ctx context.Context, pending *model.PendingUser) error {
	return r.tenants.Central(ctx).Create(pending).Error
}

func (r *pendingUserRepository) Delete(ctx context.Context, id uint) error {
	return r.tenants.Central(ctx).Unscoped().Where("id = ?", id).Delete(&model.PendingUser{}).Error
}

func NewPendingUserRepository(tenants *tenants.Registry) PendingUserRepository {
	return &pendingUserRepository{tenants}
}
