package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Audit event types. The prefix before the dot is the event category used
// by the admin audit log filter.
const (
	EventAuthRegister       = "auth.register"
	EventAuthLogin          = "auth.login"
	EventAuthFailedLogin    = "auth.failed_login"
	EventAuthLogout         = "auth.logout"
	EventAuthTokenRefresh   = "auth.token_refresh"
	EventAuthPasswordChange = "auth.password_change"

	EventSubmissionCreated    = "submission.created"
	EventSubmissionUpdated    = "submission.updated"
	EventSubmissionDeleted    = "submission.deleted"
	EventSubmissionViewed     = "submission.viewed"
	EventSubmissionClassified = "submission.classified"

	EventAdminSubmissionDelete = "admin.submission_delete"
	EventAdminDataExport       = "admin.data_export"
	EventAdminFilterApplied    = "admin.filter_applied"

	EventSecurityRateLimit    = "security.rate_limit"
	EventSecurityInvalidToken = "security.invalid_token"
	EventSecuritySuspicious   = "security.suspicious"
	EventSecurityFileRejected = "security.file_rejected"

	EventUserProfileUpdate = "user.profile_update"
)

// Audit event outcome.
const (
	AuditSuccess = "success"
	AuditFailure = "failure"
	AuditWarning = "warning"
)

// AuditLogEntry is one document of the `audit_logs` collection.
type AuditLogEntry struct {
	ID        bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	EventType string         `bson:"event_type" json:"event_type"`
	UserID    string         `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Username  string         `bson:"username,omitempty" json:"username,omitempty"`
	Action    string         `bson:"action" json:"action"`
	IPAddress string         `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent string         `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Metadata  map[string]any `bson:"metadata" json:"metadata"`
	Status    string         `bson:"status" json:"status"`
}
