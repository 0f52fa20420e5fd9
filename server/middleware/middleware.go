package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/railgpt/relay/config"
	"github.com/railgpt/relay/errors"
)

// timerWriter stamps X-Response-Time just before the header is sent.
type timerWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
}

func (tw *timerWriter) WriteHeader(code int) {
	if !tw.wroteHeader {
		tw.wroteHeader = true
		tw.Header().Set("X-Response-Time", time.Since(tw.start).String())
	}
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timerWriter) Write(b []byte) (int, error) {
	if !tw.wroteHeader {
		tw.WriteHeader(http.StatusOK)
	}
	return tw.ResponseWriter.Write(b)
}

// RequestTimer measures request processing time
func RequestTimer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &timerWriter{ResponseWriter: w, start: time.Now()}
		next.ServeHTTP(tw, r)
		if !tw.wroteHeader {
			w.Header().Set("X-Response-Time", time.Since(tw.start).String())
		}
	})
}

// CORS handles Cross-Origin Resource Sharing against an allow-list of
// origins. Allowed origins are echoed back; a preflight from any other
// origin is rejected with 400.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	policy := newCORSPolicy(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			allowed := policy.allows(origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if !allowed {
					errors.ErrorWithType(w, "Disallowed CORS origin", errors.ValidationError, http.StatusBadRequest)
					return
				}
				policy.writePreflight(w, r, origin)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if allowed {
				policy.writeOrigin(w, origin)
			}
			next.ServeHTTP(w, r)
		})
	}
}

type corsPolicy struct {
	origins     map[string]struct{}
	anyOrigin   bool
	methods     string
	anyMethod   bool
	headers     string
	anyHeader   bool
	credentials bool
	maxAge      string
}

func newCORSPolicy(cfg config.CORSConfig) *corsPolicy {
	p := &corsPolicy{
		origins:     make(map[string]struct{}, len(cfg.AllowedOrigins)),
		credentials: cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			p.anyOrigin = true
			continue
		}
		p.origins[strings.TrimRight(o, "/")] = struct{}{}
	}
	for _, m := range cfg.AllowedMethods {
		if m == "*" {
			p.anyMethod = true
		}
	}
	for _, h := range cfg.AllowedHeaders {
		if h == "*" {
			p.anyHeader = true
		}
	}
	p.methods = strings.Join(cfg.AllowedMethods, ", ")
	p.headers = strings.Join(cfg.AllowedHeaders, ", ")
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

func (p *corsPolicy) allows(origin string) bool {
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

func (p *corsPolicy) writeOrigin(w http.ResponseWriter, origin string) {
	// A literal "*" is not valid alongside credentials.
	if p.anyOrigin && !p.credentials {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}
	if p.credentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
}

func (p *corsPolicy) writePreflight(w http.ResponseWriter, r *http.Request, origin string) {
	p.writeOrigin(w, origin)

	if p.anyMethod {
		w.Header().Set("Access-Control-Allow-Methods", r.Header.Get("Access-Control-Request-Method"))
	} else if p.methods != "" {
		w.Header().Set("Access-Control-Allow-Methods", p.methods)
	}

	if p.anyHeader {
		if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
			w.Header().Set("Access-Control-Allow-Headers", requested)
		}
	} else if p.headers != "" {
		w.Header().Set("Access-Control-Allow-Headers", p.headers)
	}

	if p.maxAge != "" {
		w.Header().Set("Access-Control-Max-Age", p.maxAge)
	}
}
