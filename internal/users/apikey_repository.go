package users

import (
	"context"

	"github.com/jobers/backend/internal/tenants"
	"github.com/jobers/backend/model"
)

// ApiKeyOwner is an api key joined with its owning user's identity, the
// shape the validation gate needs.
type ApiKeyOwner struct {
	KeyID     uint   `json:"key_id"`
	UserID    uint   `json:"user_id"`
	Nombre    string `json:"nombre"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Rol       string `json:"rol"`
	EmpresaID string `json:"empresa_id"`
}

type ApiKeyRepository interface {
	Create(ctx context.Context, connectionID string, key *model.ApiKey) error
	ListByUser(ctx context.Context, connectionID string, userID uint) ([]model.ApiKey, error)
	Validate(ctx context.Context, connectionID string, apiKey string) (*ApiKeyOwner, error)
	Delete(ctx context.Context, connectionID string, userID, keyID uint) (bool, error)
}

type apiKeyRepository struct {
	tenants *tenants.Registry
}

func (r *apiKeyRepository) Create(ctx context.Context, connectionID string, key *model.ApiKey) error {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return err
	}
	return db.Create(key).Error
}

func (r *apiKeyRepository) ListByUser(ctx context.Context, connectionID string, userID uint) ([]model.ApiKey, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	var keys []model.ApiKey
	err = db.Where("user_id = ?", userID).Order("created_at DESC").Find(&keys).Error
	return keys, err
}

// Validate resolves an api key to its owner; only active keys of active
// users qualify.
func (r *apiKeyRepository) Validate(ctx context.Context, connectionID string, apiKey string) (*ApiKeyOwner, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	var owner ApiKeyOwner
	res := db.Table("api_keys ak").
		Select("ak.id AS key_id, ak.user_id, ak.nombre, u.username, u.full_name, u.email, u.rol, u.empresa_id").
		Joins("INNER JOIN users u ON ak.user_id = u.id").
		Where("ak.api_key = ? AND ak.activo = ? AND u.active = ?", apiKey, true, true).
		Limit(1).
		Scan(&owner)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrApiKeyInvalid
	}
	return &owner, nil
}

func (r *apiKeyRepository) Delete(ctx context.Context, connectionID string, userID, keyID uint) (bool, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return false, err
	}
	res := db.Where("id = ? AND user_id = ?", keyID, userID).Delete(&model.ApiKey{})
	return res.RowsAffected > 0, res.Error
}

func NewApiKeyRepository(tenants *tenants.Registry) ApiKeyRepository {
	return &apiKeyRepository{tenants}
}
