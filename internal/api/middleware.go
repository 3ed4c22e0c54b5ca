package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/identity"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
	"git.home.luguber.info/inful/docpublish/internal/observability"
)

type identityKey struct{}

// WithIdentity returns ctx carrying the authenticated caller.
func WithIdentity(ctx context.Context, who identity.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, who)
}

// IdentityFrom returns the caller stored by bearerAuth.
func IdentityFrom(ctx context.Context) (identity.Identity, bool) {
	who, ok := ctx.Value(identityKey{}).(identity.Identity)
	return who, ok
}

// bearerAuth resolves "Authorization: Bearer <token>" to an identity.
func bearerAuth(resolver identity.Resolver, adapter *derrors.HTTPErrorAdapter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil {
				adapter.WriteErrorResponse(w, r, derrors.AuthError("authentication is not configured").Build())
				return
			}
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				adapter.WriteErrorResponse(w, r, derrors.AuthError("invalid authorization format").Build())
				return
			}
			who, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				adapter.WriteErrorResponse(w, r, err)
				return
			}
			ctx := observability.WithOwner(WithIdentity(r.Context(), who), who.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requestLogger logs method, path, status and duration. The chi request id
// is put on the log context so downstream records carry it too.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			r = r.WithContext(observability.WithRequestID(r.Context(), middleware.GetReqID(r.Context())))
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			logger.InfoContext(r.Context(), "HTTP request",
				logfields.Method(r.Method),
				slog.String("route", r.URL.Path),
				logfields.Status(wrapped.statusCode),
				logfields.DurationMS(float64(time.Since(start).Microseconds())/1000),
				slog.String("remote_addr", r.RemoteAddr))
		})
	}
}

// panicRecovery recovers from panics and writes a structured error response via the HTTPErrorAdapter.
func panicRecovery(logger *slog.Logger, adapter *derrors.HTTPErrorAdapter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.ErrorContext(r.Context(), "HTTP handler panic",
						slog.Any("panic", rec),
						logfields.Method(r.Method),
						slog.String("route", r.URL.Path))

					adapter.WriteErrorResponse(w, r, derrors.InternalError("internal server error").
						WithCause(fmt.Errorf("panic: %v", rec)).
						WithContext("route", r.URL.Path).
						Build())
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter captures status codes for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
