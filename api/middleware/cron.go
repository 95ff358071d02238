package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/velurestudio/velure-backend/api/responses"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

const cronSecretHeader = "X-Cron-Secret"

// CronSecret guards operational endpoints invoked by the scheduler rather
// than an end user. When no secret is configured the routes are disabled.
func CronSecret(secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(secret) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "endpoint disabled"))
				return
			}
			provided := strings.TrimSpace(r.Header.Get(cronSecretHeader))
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid cron secret"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
