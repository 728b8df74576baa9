package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jobers/backend/internal/audit"
	"github.com/jobers/backend/internal/common"
	"github.com/jobers/backend/internal/middlewares"
	"github.com/jobers/backend/internal/middlewares/sessions"
	"github.com/jobers/backend/internal/tenants"
	"github.com/jobers/backend/internal/users"
	"github.com/jobers/backend/model"
	"github.com/jobers/backend/params"
)

type AuthHandler struct {
	userService UserService
	registry    SessionRegistry
	auditor     AuditRecorder
	geoResolver GeoResolver
}

func NewAuthHandler(userService UserService, registry SessionRegistry, auditor AuditRecorder, geoResolver GeoResolver) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		registry:    registry,
		auditor:     auditor,
		geoResolver: geoResolver,
	}
}

type loginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	EmpresaID string `json:"empresa_id"`
}

type userInfoResponse struct {
	ID                  uint   `json:"id"`
	Username            string `json:"username"`
	FullName            string `json:"full_name"`
	Email               string `json:"email"`
	Rol                 string `json:"rol"`
	EmpresaID           string `json:"empresa_id"`
	DebeCambiarPassword bool   `json:"debe_cambiar_password"`
}

func newUserInfoResponse(user *model.User) userInfoResponse {
	return userInfoResponse{
		ID:                  user.ID,
		Username:            user.Username,
		FullName:            user.FullName,
		Email:               user.Email,
		Rol:                 user.Rol,
		EmpresaID:           user.EmpresaID,
		DebeCambiarPassword: user.DebeCambiarPassword,
	}
}

func (h *AuthHandler) PostLogin(ctx *fiber.Ctx) error {
	var req loginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, "Datos de acceso invalidos")
	}
	if req.Username == "" || req.Password == "" {
		return jsonError(ctx, fiber.StatusBadRequest, "Usuario y password son obligatorios")
	}

	clientIP := middlewares.ClientIP(ctx)
	connectionID := req.EmpresaID

	user, err := h.userService.Authenticate(ctx.Context(), connectionID, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, tenants.ErrUnknownConnection) {
			return jsonError(ctx, fiber.StatusBadRequest, "Empresa desconocida")
		}
		switch err {
		case users.ErrWrongCredentials, users.ErrUserNotFound:
			h.auditor.Record(ctx.Context(), audit.Entry{
				Accion:       audit.ActionLoginFailed,
				Username:     req.Username,
				EmpresaID:    req.EmpresaID,
				ConnectionID: connectionID,
				IPAddress:    clientIP,
				UserAgent:    string(ctx.Request().Header.UserAgent()),
				Detalles:     fiber.Map{"motivo": "credenciales_invalidas"},
				Resultado:    audit.ResultFailed,
			})
			return jsonError(ctx, fiber.StatusUnauthorized, "Credenciales invalidas")
		case users.ErrUserDisabled:
			h.auditor.Record(ctx.Context(), audit.Entry{
				Accion:       audit.ActionLoginFailed,
				Username:     req.Username,
				EmpresaID:    req.EmpresaID,
				ConnectionID: connectionID,
				IPAddress:    clientIP,
				UserAgent:    string(ctx.Request().Header.UserAgent()),
				Detalles:     fiber.Map{"motivo": "usuario_desactivado"},
				Resultado:    audit.ResultBlocked,
			})
			return jsonError(ctx, fiber.StatusForbidden, "El usuario esta desactivado")
		default:
			return err
		}
	}

	// single active session per user
	if _, err := h.registry.DeleteByUserID(ctx.Context(), connectionID, user.ID); err != nil {
		slog.Error("Could not purge previous sessions", "userId", user.ID, "error", err)
	}

	token, err := h.registry.Create(ctx.Context(), connectionID, user.ID, user.EmpresaID, clientIP)
	if err != nil {
		return err
	}
	csrfToken, err := common.GenerateToken(params.CSRFTokenBytes)
	if err != nil {
		return err
	}

	session := sessions.Get(ctx)
	if err := session.Reset(sessions.SessionData{
		UserID:       user.ID,
		Username:     user.Username,
		FullName:     user.FullName,
		Rol:          user.Rol,
		EmpresaID:    user.EmpresaID,
		ConnectionID: connectionID,
		SessionToken: token,
		CSRFToken:    csrfToken,
		IP:           clientIP,
		LoginTime:    time.Now(),
	}); err != nil {
		return err
	}

	h.auditor.Record(ctx.Context(), audit.Entry{
		Accion:       audit.ActionLogin,
		UserID:       &user.ID,
		Username:     user.Username,
		EmpresaID:    user.EmpresaID,
		ConnectionID: connectionID,
		IPAddress:    clientIP,
		UserAgent:    string(ctx.Request().Header.UserAgent()),
		Detalles:     fiber.Map{"metodo": "password"},
	})

	response := fiber.Map{
		"user":       newUserInfoResponse(user),
		"csrf_token": csrfToken,
		"expira_en":  int(h.registry.RoleTimeout(user.Rol).Seconds()),
	}
	if location := h.geoResolver.Lookup(ctx.Context(), clientIP); location != nil {
		response["ubicacion"] = location
	}
	return jsonOK(ctx, response)
}

func (h *AuthHandler) PostLogout(ctx *fiber.Ctx) error {
	session := sessions.Get(ctx)
	principal := middlewares.GetPrincipal(ctx)

	if principal != nil && principal.SessionToken != "" {
		if _, err := h.registry.Delete(ctx.Context(), principal.ConnectionID, principal.SessionToken); err != nil {
			slog.Error("Could not delete session row", "error", err)
		}
		h.auditor.Record(ctx.Context(), audit.Entry{
			Accion:       audit.ActionLogout,
			UserID:       &principal.UserID,
			Username:     principal.Username,
			EmpresaID:    principal.EmpresaID,
			ConnectionID: principal.ConnectionID,
			IPAddress:    middlewares.ClientIP(ctx),
			UserAgent:    string(ctx.Request().Header.UserAgent()),
		})
	}
	if err := session.Destroy(); err != nil {
		return err
	}
	return jsonOK(ctx, fiber.Map{"message": "Sesion cerrada"})
}

func (h *AuthHandler) GetCurrentUser(ctx *fiber.Ctx) error {
	principal := middlewares.GetPrincipal(ctx)
	user, err := h.userService.GetUserByID(ctx.Context(), principal.ConnectionID, principal.UserID)
	if err != nil {
		if err == users.ErrUserNotFound {
			return jsonError(ctx, fiber.StatusUnauthorized, "Autenticacion requerida")
		}
		return err
	}
	return jsonOK(ctx, fiber.Map{"user": newUserInfoResponse(user)})
}

type changePasswordRequest struct {
	PasswordActual string `json:"password_actual"`
	PasswordNueva  string `json:"password_nueva"`
}

func (h *AuthHandler) PostChangePassword(ctx *fiber.Ctx) error {
	principal := middlewares.GetPrincipal(ctx)
	var req changePasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, "Datos invalidos")
	}
	if len(req.PasswordNueva) < 8 {
		return jsonError(ctx, fiber.StatusBadRequest, "La password nueva debe tener al menos 8 caracteres")
	}

	if _, err := h.userService.Authenticate(ctx.Context(), principal.ConnectionID, principal.Username, req.PasswordActual); err != nil {
		return jsonError(ctx, fiber.StatusUnauthorized, "La password actual no es correcta")
	}
	if err := h.userService.ChangePassword(ctx.Context(), principal.ConnectionID, principal.UserID, req.PasswordNueva); err != nil {
		return err
	}

	h.auditor.Record(ctx.Context(), audit.Entry{
		Accion:       audit.ActionPasswordChange,
		UserID:       &principal.UserID,
		Username:     principal.Username,
		EmpresaID:    principal.EmpresaID,
		ConnectionID: principal.ConnectionID,
		IPAddress:    middlewares.ClientIP(ctx),
		UserAgent:    string(ctx.Request().Header.UserAgent()),
	})
	return jsonOK(ctx, fiber.Map{"message": "Password actualizada"})
}
