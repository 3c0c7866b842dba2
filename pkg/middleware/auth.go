package middleware

import (
	"context"
	"net/http"

	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/auth"
	"github.com/shashiranjanraj/grinfood/pkg/logger"
	"github.com/shashiranjanraj/grinfood/pkg/metrics"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
	"github.com/shashiranjanraj/grinfood/pkg/response"
)

// Resolver turns a bearer credential into a subject.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (rbac.Subject, error)
}

// RoleSource looks up the role of a subject.
type RoleSource interface {
	RoleOf(ctx context.Context, subjectID string) (rbac.Role, error)
}

type authOptions struct {
	queryToken bool
}

// AuthOption customises Authenticate.
type AuthOption func(*authOptions)

// AllowQueryToken also accepts the credential from the access_token query
// parameter. Browsers cannot set headers on a websocket handshake.
func AllowQueryToken() AuthOption {
	return func(o *authOptions) { o.queryToken = true }
}

func credential(r *http.Request, o authOptions) string {
	if tok := auth.ExtractBearer(r.Header.Get("Authorization")); tok != "" {
		return tok
	}
	if o.queryToken {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

// Authenticate resolves the bearer credential and attaches the subject to
// the request. A missing, invalid or unverifiable credential ends the
// request with the resolver's error.
//
//	r.Group("/api", func(g *router.Group) {
//	    g.Use(middleware.Authenticate(resolver))
//	})
func Authenticate(resolver Resolver, opts ...AuthOption) func(http.Handler) http.Handler {
	var o authOptions
	for _, opt := range opts {
		opt(&o)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := resolver.Resolve(r.Context(), credential(r, o))
			if err != nil {
				reject(w, r, err)
				return
			}
			ctx := rbac.WithPrincipal(r.Context(), rbac.Principal{Subject: subject})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthenticate attaches the subject when a valid credential is
// present and lets the request through anonymously otherwise.
func OptionalAuthenticate(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := credential(r, authOptions{})
			if tok == "" {
				next.ServeHTTP(w, r)
				return
			}
			subject, err := resolver.Resolve(r.Context(), tok)
			if err != nil {
				logger.WithCtx(r.Context()).Debug("optional auth: credential ignored", "kind", apperr.KindOf(err))
				next.ServeHTTP(w, r)
				return
			}
			ctx := rbac.WithPrincipal(r.Context(), rbac.Principal{Subject: subject})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoadRole looks up the role of the authenticated subject. Requests without
// a principal pass through untouched so that OptionalAuthenticate routes
// keep working; rbac.Require rejects them where a role is mandatory.
func LoadRole(roles RoleSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := rbac.PrincipalFrom(r.Context())
			if !ok || p.RoleLoaded {
				next.ServeHTTP(w, r)
				return
			}
			role, err := roles.RoleOf(r.Context(), p.Subject.ID)
			if err != nil {
				reject(w, r, apperr.Collaborator("middleware.load_role", err))
				return
			}
			p.Role, p.RoleLoaded = role, true
			next.ServeHTTP(w, r.WithContext(rbac.WithPrincipal(r.Context(), p)))
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	metrics.AuthRejections.WithLabelValues(string(kind)).Inc()
	if kind == apperr.KindCollaboratorFailed {
		logger.WithCtx(r.Context()).Error("auth: collaborator failure", "error", err)
	}
	response.Err(w, err)
}
