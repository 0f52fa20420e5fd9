package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// ErrorHandler wraps an http.Handler and turns panics into a 500 response.
// A nil logger falls back to DefaultLogger.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger := orDefault(logger)
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					stack := debug.Stack()
					requestID := w.Header().Get("X-Request-ID")
					logger.Error("panic recovered",
						zap.Any("error", rec),
						zap.ByteString("stacktrace", stack),
						zap.String("request_id", requestID),
					)

					WriteError(w, NewInternalError(requestID, fmt.Errorf("%v", rec)))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// LogError logs an error with its context. A nil logger falls back to
// DefaultLogger.
func LogError(logger *zap.Logger, err error, requestID string) {
	logger = orDefault(logger)
	var relayErr *RelayError
	if As(err, &relayErr) {
		fields := []zap.Field{
			zap.String("error_type", string(relayErr.Type)),
			zap.String("message", relayErr.Message),
			zap.Int("code", relayErr.Code),
			zap.String("request_id", requestID),
			zap.Any("details", relayErr.Details),
		}
		if relayErr.err != nil {
			fields = append(fields, zap.NamedError("cause", relayErr.err))
		}
		if relayErr.Code >= http.StatusInternalServerError {
			logger.Error("request error", fields...)
		} else {
			logger.Warn("request error", fields...)
		}
		return
	}

	logger.Error("unexpected error",
		zap.Error(err),
		zap.String("request_id", requestID),
	)
}

func orDefault(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return DefaultLogger
	}
	return logger
}
