package domain

import "github.com/google/uuid"

// Permissions checked by the statistics service.
const (
	PermissionStatsRead      = "stats:read"
	PermissionStatsRecompute = "stats:recompute"
)

// AuthContext identifies on whose behalf an operation runs.
// Master contexts are used by scheduled jobs and bypass permission checks.
type AuthContext struct {
	UserID uuid.UUID
	Master bool
}

// MasterContext returns the elevated context used by recompute jobs.
func MasterContext() AuthContext {
	return AuthContext{Master: true}
}

// UserContext returns the context of a calling user.
func UserContext(userID uuid.UUID) AuthContext {
	return AuthContext{UserID: userID}
}
