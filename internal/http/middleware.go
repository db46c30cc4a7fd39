package http

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"log-analyzer/internal/shared/loggers"
	"log-analyzer/internal/shared/svcerrors"
	"log-analyzer/internal/shared/ulid"

	"github.com/go-chi/chi/v5"
)

func setupMiddleware(router *chi.Mux, httpLogger loggers.Logger) {
	router.Use(mwRequestScope(httpLogger))
	router.Use(mwObserve)
	router.Use(mwRecoverer)
}

// mwRequestScope assigns the request id, echoes it back to the caller and attaches a
// request-scoped logger and a statusWriter for the rest of the chain.
func mwRequestScope(httpLogger loggers.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := requestID(r)
			if id == "" {
				id = ulid.NewULID()
				setRequestID(r, id)
			}
			w.Header().Set(headerRequestID, id)

			ctx := httpLogger.With().
				Str(loggers.FieldRequestID, id).
				Logger().WithContext(r.Context())

			next.ServeHTTP(wrapStatusWriter(w, r), r.WithContext(ctx))
		})
	}
}

// mwObserve records request metrics and the completion log line once the handler returns.
// Metrics use the chi route pattern so report names never become label values.
func mwObserve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := wrapStatusWriter(w, r)
		start := time.Now()

		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		route := routePattern(r)
		status := strconv.Itoa(sw.Status())

		metricHTTPRequestsTotal.WithLabelValues(r.Method, route, status, sw.errorCode()).Inc()
		metricHTTPRequestDuration.WithLabelValues(r.Method, route, status, sw.errorCode()).Observe(elapsed.Seconds())

		loggers.Ctx(r.Context()).Info().
			Str(loggers.FieldHttpMethod, r.Method).
			Str(loggers.FieldHttpPath, r.URL.Path).
			Int(loggers.FieldHttpStatus, sw.Status()).
			Int64(loggers.FieldDuration, elapsed.Milliseconds()).
			Msg("request completed")
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func mwRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			loggers.Ctx(r.Context()).Error().
				Bytes(loggers.FieldErrorStack, debug.Stack()).
				Msgf("report browser panic recovered: %v", p)

			panicErr, ok := p.(error)
			if !ok {
				panicErr = fmt.Errorf("%v", p)
			}
			writeErrorResponse(w, r, svcerrors.NewInternalErrorPanic(panicErr))
		}()

		next.ServeHTTP(w, r)
	})
}
