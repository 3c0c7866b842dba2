// Package kernel builds the HTTP handler: the global middleware stack
// followed by the API routes.
package kernel

import (
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/shashiranjanraj/grinfood/app/routes"
	"github.com/shashiranjanraj/grinfood/pkg/metrics"
	"github.com/shashiranjanraj/grinfood/pkg/middleware"
	"github.com/shashiranjanraj/grinfood/pkg/reqid"
	"github.com/shashiranjanraj/grinfood/pkg/router"
)

// Options tune the global stack. Zero values fall back to the defaults.
type Options struct {
	RequestTimeout time.Duration
	RateLimit      int
	RateWindow     time.Duration
	CORS           *middleware.CORSOptions
}

// HTTPKernel owns the router and the stateful middleware.
type HTTPKernel struct {
	router  *router.Router
	limiter *middleware.RateLimiter
}

// NewHTTPKernel mounts the global middleware and then the API.
func NewHTTPKernel(api routes.API, opts Options) *HTTPKernel {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 200
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	cors := middleware.DefaultCORSOptions()
	if opts.CORS != nil {
		cors = *opts.CORS
	}

	k := &HTTPKernel{
		router:  router.New(),
		limiter: middleware.NewRateLimiter(opts.RateLimit, opts.RateWindow),
	}

	// Outermost first:
	//  1. metrics, so latency covers the whole chain
	//  2. recovery
	//  3. request id, before anything logs
	//  4. access log
	//  5. CORS
	//  6. rate limiter
	//  7. request timeout, skipped for long-lived streams
	k.router.Use(metrics.Middleware())
	k.router.Use(middleware.Recovery)
	k.router.Use(reqid.Middleware())
	k.router.Use(middleware.Logger)
	k.router.Use(middleware.CORS(cors))
	k.router.Use(k.limiter.Middleware)
	k.router.Use(timeoutUnlessStreaming(opts.RequestTimeout))

	routes.RegisterAPI(k.router, api)
	return k
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

func (k *HTTPKernel) Routes() []router.RouteInfo { return k.router.Routes() }

// Close stops the rate limiter's janitor.
func (k *HTTPKernel) Close() { k.limiter.Stop() }

func timeoutUnlessStreaming(d time.Duration) router.Middleware {
	timeout := chimw.Timeout(d)
	return func(next http.Handler) http.Handler {
		bounded := timeout(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if streaming(r) {
				next.ServeHTTP(w, r)
				return
			}
			bounded.ServeHTTP(w, r)
		})
	}
}

func streaming(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/ws/") || strings.HasSuffix(r.URL.Path, "/events")
}
