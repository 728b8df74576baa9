package users

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jobers/backend/internal/common"
	"github.com/jobers/backend/model"
	"github.com/jobers/backend/params"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateUserOptions struct {
	Username  string
	FullName  string
	Email     string
	Password  string
	Rol       string
	EmpresaID string
}

type registerClaims struct {
	TicketID string `json:"tid"`
	jwt.RegisteredClaims
}

type UserService struct {
	userRepo        UserRepository
	pendingUserRepo PendingUserRepository
	apiKeyRepo      ApiKeyRepository
	masterKey       string
}

func NewUserService(userRepo UserRepository, pendingUserRepo PendingUserRepository, apiKeyRepo ApiKeyRepository, masterKey string) *UserService {
	return &UserService{
		userRepo:        userRepo,
		pendingUserRepo: pendingUserRepo,
		apiKeyRepo:      apiKeyRepo,
		masterKey:       masterKey,
	}
}

func (s *UserService) GetUserByID(ctx context.Context, connectionID string, userID uint) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, connectionID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) GetUserByUsername(ctx context.Context, connectionID string, username string) (*model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, connectionID, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// Authenticate verifies username/password credentials against the tenant
// database. Disabled accounts never authenticate.
func (s *UserService) Authenticate(ctx context.Context, connectionID string, username, password string) (*model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, connectionID, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWrongCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, ErrUserDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrWrongCredentials
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, connectionID string, userID uint, newPassword string) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	affected, err := s.userRepo.Updates(ctx, connectionID, userID, map[string]interface{}{
		"password":              string(passwordHash),
		"debe_cambiar_password": false,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) CreateUser(ctx context.Context, connectionID string, opts CreateUserOptions) (*model.User, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	rol := opts.Rol
	if rol == "" {
		rol = model.RolUsuario
	}
	user := model.User{
		Username:  opts.Username,
		FullName:  opts.FullName,
		Email:     opts.Email,
		Password:  string(passwordHash),
		Rol:       rol,
		EmpresaID: opts.EmpresaID,
		Active:    true,
	}

	var mysqlErr *mysql.MySQLError
	if err := s.userRepo.Create(ctx, connectionID, &user); errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return nil, ErrUsernameTaken
	} else if err != nil {
		return nil, err
	}
	return &user, nil
}

// RegisterUser stages a public registration and returns the pending record
// together with the signed verification token for the e-mail link.
func (s *UserService) RegisterUser(ctx context.Context, opts CreateUserOptions) (*model.PendingUser, string, error) {
	if _, err := s.pendingUserRepo.GetByUsernameOrEmail(ctx, opts.Username, opts.Email); err == nil {
		return nil, "", ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	pending := model.PendingUser{
		TicketID:  uuid.NewString(),
		Username:  opts.Username,
		FullName:  opts.FullName,
		Email:     opts.Email,
		Password:  string(passwordHash),
		EmpresaID: opts.EmpresaID,
	}
	if err := s.pendingUserRepo.Create(ctx, &pending); err != nil {
		return nil, "", err
	}

	token, err := s.generateVerificationToken(pending.TicketID)
	if err != nil {
		return nil, "", err
	}
	return &pending, token, nil
}

func (s *UserService) generateVerificationToken(ticketID string) (string, error) {
	claims := registerClaims{
		TicketID: ticketID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(params.RegisterTokenExpiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.masterKey))
}

// VerifyEmail redeems a verification token, promoting the pending
// registration to a real user account.
func (s *UserService) VerifyEmail(ctx context.Context, tokenStr string) (*model.User, error) {
	var claims registerClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.masterKey), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}

	pending, err := s.pendingUserRepo.GetByTicketID(ctx, claims.TicketID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}

	user := model.User{
		Username:  pending.Username,
		FullName:  pending.FullName,
		Email:     pending.Email,
		Password:  pending.Password,
		Rol:       model.RolUsuario,
		EmpresaID: pending.EmpresaID,
		Active:    true,
	}
	if err := s.userRepo.Create(ctx, "", &user); err != nil {
		return nil, err
	}
	if err := s.pendingUserRepo.Delete(ctx, pending.ID); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateApiKey issues a new 64-hex api key for a user.
func (s *UserService) CreateApiKey(ctx context.Context, connectionID string, userID uint, nombre string) (*model.ApiKey, error) {
	raw, err := common.GenerateToken(params.SessionTokenBytes)
	if err != nil {
		return nil, err
	}
	key := model.ApiKey{
		UserID: userID,
		ApiKey: raw,
		Nombre: nombre,
		Activo: true,
	}
	if err := s.apiKeyRepo.Create(ctx, connectionID, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

func (s *UserService) ListApiKeys(ctx context.Context, connectionID string, userID uint) ([]model.ApiKey, error) {
	return s.apiKeyRepo.ListByUser(ctx, connectionID, userID)
}

func (s *UserService) ValidateApiKey(ctx context.Context, connectionID string, apiKey string) (*ApiKeyOwner, error) {
	return s.apiKeyRepo.Validate(ctx, connectionID, apiKey)
}

func (s *UserService) DeleteApiKey(ctx context.Context, connectionID string, userID, keyID uint) (bool, error) {
	return s.apiKeyRepo.Delete(ctx, connectionID, userID, keyID)
}
