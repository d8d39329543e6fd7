// Package apiclient talks to the remote resources API over JSON/HTTP.
package apiclient

import (
	"strings"
	"time"
)

const (
	APIVersion         = "v1"
	DefaultTimeout     = 30 * time.Second
	RateLimitPerMinute = 100
)

// BuildAPIPath returns <base>/api/v1/<resource>.
func BuildAPIPath(base, resource string) string {
	return strings.TrimRight(base, "/") + "/api/" + APIVersion + "/" + strings.TrimLeft(resource, "/")
}
