package http

import (
	"net/http"

	"log-analyzer/internal/shared/svcerrors"

	"github.com/go-chi/chi/v5/middleware"
)

// statusWriter records what a report browser handler answered so that
// observing middleware can label metrics and logs after the fact.
type statusWriter struct {
	middleware.WrapResponseWriter
	svcError *svcerrors.ServiceError
}

func wrapStatusWriter(w http.ResponseWriter, r *http.Request) *statusWriter {
	if sw, ok := w.(*statusWriter); ok {
		return sw
	}
	return &statusWriter{WrapResponseWriter: middleware.NewWrapResponseWriter(w, r.ProtoMajor)}
}

// Status returns the written status code. Handlers that never call WriteHeader answered 200.
func (w *statusWriter) Status() int {
	if status := w.WrapResponseWriter.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}

func (w *statusWriter) setServiceError(svcError *svcerrors.ServiceError) {
	w.svcError = svcError
}

func (w *statusWriter) errorCode() string {
	if w.svcError == nil {
		return ""
	}
	return w.svcError.Code
}
