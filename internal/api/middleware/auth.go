package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TriggerSecretHeader is the alternative to a bearer token for the shared secret.
const TriggerSecretHeader = "X-Trigger-Secret"

// Auth failure reasons passed to SharedSecretConfig.OnFailure.
const (
	ReasonNotConfigured = "not_configured"
	ReasonMissing       = "missing"
	ReasonInvalid       = "invalid"
)

// SharedSecretConfig configures NewSharedSecretAuth.
type SharedSecretConfig struct {
	// Secret returns the configured secret. It is read per request so the
	// server can start, and report the problem, while the secret is unset.
	Secret func() string

	// OnFailure is called with one of the Reason constants. Optional.
	OnFailure func(c echo.Context, reason string)
}

// NewSharedSecretAuth rejects requests that do not carry the shared secret as
// "Authorization: Bearer <secret>" or in the X-Trigger-Secret header.
// An unset secret is a server misconfiguration (500), a wrong one is 401.
func NewSharedSecretAuth(cfg SharedSecretConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			secret := ""
			if cfg.Secret != nil {
				secret = cfg.Secret()
			}
			if secret == "" {
				fail(c, cfg, ReasonNotConfigured)
				return echo.NewHTTPError(http.StatusInternalServerError, "trigger secret is not configured")
			}

			presented := presentedSecret(c.Request())
			if presented == "" {
				fail(c, cfg, ReasonMissing)
				return echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
				fail(c, cfg, ReasonInvalid)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
			}

			return next(c)
		}
	}
}

func presentedSecret(r *http.Request) string {
	if auth := r.Header.Get(echo.HeaderAuthorization); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get(TriggerSecretHeader))
}

func fail(c echo.Context, cfg SharedSecretConfig, reason string) {
	if cfg.OnFailure != nil {
		cfg.OnFailure(c, reason)
	}
}
