package middleware

import (
	"net/http"

	"github.com/velurestudio/velure-backend/api/responses"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

// RequireCreator guards routes that manage sets, watermark settings, and
// forensic investigations.
func RequireCreator(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsCreatorFromContext(r.Context()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "creator access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
