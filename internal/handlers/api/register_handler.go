package api

import (
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/gofiber/fiber/v2"
	"github.com/jobers/backend/internal/audit"
	mailer "github.com/jobers/backend/internal/mail"
	"github.com/jobers/backend/internal/middlewares"
	"github.com/jobers/backend/internal/users"
)

type RegisterHandler struct {
	userService UserService
	auditor     AuditRecorder
	mailSender  mailer.MailSender
	siteName    string
	baseURL     string
}

func NewRegisterHandler(userService UserService, auditor AuditRecorder, mailSender mailer.MailSender, siteName, baseURL string) *RegisterHandler {
	return &RegisterHandler{
		userService: userService,
		auditor:     auditor,
		mailSender:  mailSender,
		siteName:    siteName,
		baseURL:     baseURL,
	}
}

type registerRequest struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	EmpresaID string `json:"empresa_id"`
}

func (h *RegisterHandler) PostRegister(ctx *fiber.Ctx) error {
	var req registerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, "Datos de registro invalidos")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return jsonError(ctx, fiber.StatusBadRequest, "Usuario, email y password son obligatorios")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, "Email invalido")
	}
	if len(req.Password) < 8 {
		return jsonError(ctx, fiber.StatusBadRequest, "La password debe tener al menos 8 caracteres")
	}

	pending, token, err := h.userService.RegisterUser(ctx.Context(), users.CreateUserOptions{
		Username:  req.Username,
		FullName:  req.FullName,
		Email:     req.Email,
		Password:  req.Password,
		EmpresaID: req.EmpresaID,
	})
	if err != nil {
		switch err {
		case users.ErrUsernameTaken:
			return jsonError(ctx, fiber.StatusConflict, "El nombre de usuario ya esta en uso")
		case users.ErrEmailRegistered:
			return jsonError(ctx, fiber.StatusConflict, "El email ya esta registrado")
		default:
			return err
		}
	}

	verifyURL := fmt.Sprintf("%s/api/register/verify?token=%s", h.baseURL, token)
	if err := mailer.SendRegisterVerification(h.mailSender, h.siteName, pending.Email, pending.FullName, verifyURL); err != nil {
		slog.Error("Could not send verification email", "email", pending.Email, "error", err)
	}

	h.auditor.Record(ctx.Context(), audit.Entry{
		Accion:    audit.ActionUserRegister,
		Username:  req.Username,
		EmpresaID: req.EmpresaID,
		IPAddress: middlewares.ClientIP(ctx),
		UserAgent: string(ctx.Request().Header.UserAgent()),
		Detalles:  fiber.Map{"email": pending.Email},
	})
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Registro recibido, revisa tu correo para verificar la cuenta",
	})
}

func (h *RegisterHandler) GetVerifyEmail(ctx *fiber.Ctx) error {
	token := ctx.Query("token")
	if token == "" {
		return jsonError(ctx, fiber.StatusBadRequest, "Falta el token de verificacion")
	}

	user, err := h.userService.VerifyEmail(ctx.Context(), token)
	if err != nil {
		if err == users.ErrTokenInvalid {
			return jsonError(ctx, fiber.StatusBadRequest, "El token de verificacion es invalido o ha caducado")
		}
		return err
	}

	h.auditor.Record(ctx.Context(), audit.Entry{
		Accion:    audit.ActionUserEmailVerify,
		UserID:    &user.ID,
		Username:  user.Username,
		EmpresaID: user.EmpresaID,
		IPAddress: middlewares.ClientIP(ctx),
		UserAgent: string(ctx.Request().Header.UserAgent()),
	})
	return jsonOK(ctx, fiber.Map{
		"message": "Correo verificado, ya puedes iniciar sesion",
		"user":    newUserInfoResponse(user),
	})
}
