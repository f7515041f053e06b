package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	apperrors "github.com/utafrali/catalogsearch/pkg/errors"
	"github.com/utafrali/catalogsearch/pkg/httputil"
	"github.com/utafrali/catalogsearch/pkg/logger"
)

// Recovery turns a handler panic into a logged 500 response.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				l.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				appErr := apperrors.Internal(fmt.Errorf("panic: %v", rec))
				httputil.WriteJSON(w, appErr.Status, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:      appErr.Code,
						Message:   appErr.Message,
						RequestID: logger.CorrelationIDFromContext(r.Context()),
					},
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
