package rbac

import (
	"context"
	"net/http"

	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/metrics"
	"github.com/shashiranjanraj/grinfood/pkg/response"
)

type principalKey struct{}

// Principal is what the auth middleware attaches to a request: the resolved
// subject and, on routes that load it, the subject's role.
type Principal struct {
	Subject    Subject
	Role       Role
	RoleLoaded bool
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal attached to ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Require returns middleware that enforces capability against the
// principal's role. It must run after the role has been loaded. Routes with
// an ownership check authorize inside their service instead.
func Require(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := PrincipalFrom(r.Context())
			if err := Authorize(p.Subject, p.Role, capability, ""); err != nil {
				metrics.AuthRejections.WithLabelValues(string(apperr.KindOf(err))).Inc()
				response.Err(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
