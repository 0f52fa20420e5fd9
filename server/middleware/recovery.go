package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/railgpt/relay/errors"
	"go.uber.org/zap"
)

// Recovery middleware recovers from panics in handlers and answers with a
// 500 carrying the panic message.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					requestID := GetRequestID(r.Context())
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("request_id", requestID),
						zap.ByteString("stack", debug.Stack()),
					)

					errors.WriteError(w, errors.NewInternalError(
						requestID,
						fmt.Errorf("%v", err),
					))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
