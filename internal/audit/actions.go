package audit

// Closed vocabulary of audited event kinds.
const (
	// authentication
	ActionLogin                = "LOGIN"
	ActionLoginFailed          = "LOGIN_FAILED"
	ActionLogout               = "LOGOUT"
	ActionPasswordChange       = "PASSWORD_CHANGE"
	ActionPasswordResetRequest = "PASSWORD_RESET_REQUEST"

	// session control
	ActionSessionKill    = "SESSION_KILL"
	ActionSessionKillAll = "SESSION_KILL_ALL"

	// user lifecycle
	ActionUserCreate     = "USER_CREATE"
	ActionUserActivate   = "USER_ACTIVATE"
	ActionUserDeactivate = "USER_DEACTIVATE"
	ActionUserRoleChange = "USER_ROLE_CHANGE"
	ActionUserDelete     = "USER_DELETE"

	// public registration
	ActionUserRegister           = "USER_REGISTER"
	ActionUserEmailVerify        = "USER_EMAIL_VERIFY"
	ActionUserResendVerification = "USER_RESEND_VERIFICATION"

	// api keys
	ActionApiKeyCreate = "API_KEY_CREATE"
	ActionApiKeyDelete = "API_KEY_DELETE"

	// configuration
	ActionConfigChange      = "CONFIG_CHANGE"
	ActionEmailConfigChange = "EMAIL_CONFIG_CHANGE"

	// proposal / consultation workflow
	ActionPropuestaSend         = "PROPUESTA_SEND"
	ActionPropuestaStatusChange = "PROPUESTA_STATUS_CHANGE"
	ActionConsultaSend          = "CONSULTA_SEND"
	ActionConsultaRespond       = "CONSULTA_RESPOND"

	// articles
	ActionArticleView = "ARTICLE_VIEW"
)

// Action results.
const (
	ResultSuccess = "SUCCESS"
	ResultFailed  = "FAILED"
	ResultBlocked = "BLOCKED"
)

// AllActions returns the enumerable action vocabulary, served by the
// /api/audit-logs/actions endpoint.
func AllActions() []string {
	return []string{
		ActionLogin, ActionLoginFailed, ActionLogout, ActionPasswordChange, ActionPasswordResetRequest,
		ActionSessionKill, ActionSessionKillAll,
		ActionUserCreate, ActionUserActivate, ActionUserDeactivate, ActionUserRoleChange, ActionUserDelete,
		ActionUserRegister, ActionUserEmailVerify, ActionUserResendVerification,
		ActionApiKeyCreate, ActionApiKeyDelete,
		ActionConfigChange, ActionEmailConfigChange,
		ActionPropuestaSend, ActionPropuestaStatusChange,
		ActionConsultaSend, ActionConsultaRespond,
		ActionArticleView,
	}
}
