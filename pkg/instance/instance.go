package instance

import "github.com/flipearn/flipearn-backend/pkg/env"

// GetID returns the process instance identifier used in log fields.
func GetID() string {
	return env.Get("FLIPEARN_INSTANCE_ID", "local")
}
