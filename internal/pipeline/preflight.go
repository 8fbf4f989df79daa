// internal/pipeline/preflight.go
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mentor-matcher/internal/common/config"
	apperrors "mentor-matcher/internal/common/errors"
)

// Preflight checks credentials before any client is built or network call
// made, so a missing or expired token fails the run as an auth error.
func Preflight(cfg *config.Config, now time.Time) error {
	token := strings.TrimSpace(cfg.Directory.AccessToken)
	if token == "" {
		return apperrors.NewAuthError("directory", "access token is not set (ACCESS_TOKEN)")
	}
	if exp, ok := tokenExpiry(token); ok && !exp.After(now) {
		return apperrors.NewAuthError("directory", fmt.Sprintf("access token expired at %s", exp.UTC().Format(time.RFC3339)))
	}

	if strings.TrimSpace(cfg.Completion.APIKey) == "" {
		return apperrors.NewAuthError("completion", fmt.Sprintf("API key for provider %s is not set", cfg.Completion.Provider))
	}
	if cfg.Completion.Provider == "azure" && strings.TrimSpace(cfg.Completion.Endpoint) == "" {
		return apperrors.NewConfigError("completion.endpoint is required for azure (AZURE_OPENAI_ENDPOINT)")
	}
	return nil
}

// tokenExpiry reads the exp claim of a JWT without verifying it. Opaque
// tokens report ok=false and are left for the directory to judge.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
