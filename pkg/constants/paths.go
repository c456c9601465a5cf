package constants

// Health and readiness paths; channel API routes live in the router.
const (
	PathHealth = "/health"
	PathReady  = "/ready"
)
