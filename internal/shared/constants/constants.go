package constants

const (
	// HTTP Headers
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXSignature    = "X-Signature"

	// Context keys
	ContextKeyUserID       = "user_id"
	ContextKeyUserRole     = "user_role"
	ContextKeyRequestID    = "request_id"
	ContextKeyGateWarning  = "subscription_warning"
	ContextKeyAccessReason = "access_reason"

	// Roles
	RoleUser  = "user"
	RoleAdmin = "admin"

	// Database table names
	TableUsers          = "users"
	TableSubscriptions  = "subscriptions"
	TablePaymentRecords = "payment_records"
	TableWebhookEvents  = "webhook_events"
	TableStudies        = "studies"

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgResourceNotFound    = "Resource not found"
	ErrMsgUnauthorized        = "Unauthorized access"
	ErrMsgForbidden           = "Access forbidden"
)
