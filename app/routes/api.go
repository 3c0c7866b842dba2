// Package routes mounts the HTTP surface onto the router. Access is layered
// per group: Authenticate resolves the bearer credential, LoadRole fetches
// the role where a route needs it, and rbac.Require gates the manager-only
// groups. Ownership checks happen inside the services.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/grinfood/app/controllers"
	"github.com/shashiranjanraj/grinfood/pkg/ctx"
	"github.com/shashiranjanraj/grinfood/pkg/middleware"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
	"github.com/shashiranjanraj/grinfood/pkg/router"
)

// API is everything the routes need.
type API struct {
	Resolver middleware.Resolver
	Roles    middleware.RoleSource

	Accounts   *controllers.AccountController
	Orders     *controllers.OrderController
	Menu       *controllers.MenuController
	Promotions *controllers.PromotionController
	Reviews    *controllers.ReviewController
	Stats      *controllers.StatsController
	Verify     *controllers.VerifyController
	Feed       *controllers.FeedController

	// Optional handlers mounted outside /api.
	GraphQL http.Handler
	Metrics http.Handler
	Files   http.Handler
}

func (a API) authed() []router.Middleware {
	return []router.Middleware{middleware.Authenticate(a.Resolver)}
}

func (a API) withRole() []router.Middleware {
	return []router.Middleware{middleware.Authenticate(a.Resolver), middleware.LoadRole(a.Roles)}
}

func (a API) managers() []router.Middleware {
	return append(a.withRole(), rbac.Require(rbac.Manage))
}

func RegisterAPI(r *router.Router, a API) {
	r.Get("/", "home", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("GrinFood API is running")) //nolint:errcheck
	})
	if a.Metrics != nil {
		r.Handle("/metrics", "metrics", a.Metrics)
	}
	if a.GraphQL != nil {
		r.Handle("/graphql", "graphql", a.GraphQL)
	}
	if a.Files != nil {
		r.Handle("/storage/*", "storage", http.StripPrefix("/storage", a.Files))
	}
	r.Get("/ws/orders", "orders.feed", ctx.Wrap(a.Feed.Orders),
		middleware.Authenticate(a.Resolver, middleware.AllowQueryToken()),
		middleware.LoadRole(a.Roles),
		rbac.Require(rbac.Manage),
	)

	api := r.Group("/api")
	registerAccounts(api, a)
	registerOrders(api, a)
	registerCatalog(api, a)
	registerStats(api, a)

	verify := api.Group("/verify")
	verify.Post("/send-otp", "verify.send", ctx.Wrap(a.Verify.SendOTP))
	verify.Post("/verify-otp", "verify.check", ctx.Wrap(a.Verify.VerifyOTP))
}

func registerAccounts(api *router.Group, a API) {
	ac := a.Accounts

	// A manager may create managers, so signup reads an optional credential.
	api.Post("/signup", "auth.signup", ctx.Wrap(ac.Signup),
		middleware.OptionalAuthenticate(a.Resolver), middleware.LoadRole(a.Roles))
	api.Post("/signin", "auth.signin", ctx.Wrap(ac.Signin))
	api.Get("/check-user-exists", "users.exists", ctx.Wrap(ac.CheckUserExists))
	api.Post("/check-user-by-email", "users.exists_by_email", ctx.Wrap(ac.CheckUserByEmail))
	api.Post("/forgot-password", "auth.forgot", ctx.Wrap(ac.ForgotPassword))
	api.Post("/reset-password", "auth.reset", ctx.Wrap(ac.ResetPassword))
	api.Get("/verify-email", "auth.verify_email", ctx.Wrap(ac.VerifyEmail))
	api.Get("/user/{uid}", "users.name", ctx.Wrap(ac.UserName))

	authed := api.Group("", a.authed()...)
	authed.Get("/check-auth", "auth.check", ctx.Wrap(ac.CheckAuth))
	authed.Get("/get-role", "auth.role", ctx.Wrap(ac.GetRole))
	authed.Post("/update-email", "auth.update_email", ctx.Wrap(ac.UpdateEmail))
	authed.Post("/delete-user", "auth.delete", ctx.Wrap(ac.DeleteSelf))
	authed.Post("/notify-profile-updated", "auth.notify_profile", ctx.Wrap(ac.NotifyProfileUpdated))
	authed.Post("/send-verification-email", "auth.send_verification", ctx.Wrap(ac.SendVerificationEmail))

	api.Get("/check-email-verified/{uid}", "users.email_verified", ctx.Wrap(ac.CheckEmailVerified), a.withRole()...)

	users := api.Group("/users", a.managers()...)
	users.Delete("/{uid}", "users.delete", ctx.Wrap(ac.DeleteUser))
	users.Put("/{uid}/role", "users.role", ctx.Wrap(ac.AssignRole))
}

func registerOrders(api *router.Group, a API) {
	oc := a.Orders

	orders := api.Group("/orders", a.authed()...)
	orders.Post("", "orders.create", ctx.Wrap(oc.Create))
	orders.Get("/mine", "orders.mine", ctx.Wrap(oc.Mine))
	orders.Get("/mine/events", "orders.mine_events", ctx.Wrap(a.Feed.MyOrders))

	// Paying for an order of someone else needs the manager role.
	api.Post("/orders/create-payment-intent", "payments.intent", ctx.Wrap(oc.PaymentIntent), a.withRole()...)
	api.Post("/create-payment-intent", "payments.intent_legacy", ctx.Wrap(oc.PaymentIntent), a.withRole()...)

	mgr := api.Group("/orders", a.managers()...)
	mgr.Get("/by-status/{status}", "orders.by_status", ctx.Wrap(oc.ByStatus))
	mgr.Patch("/{id}/status", "orders.transition", ctx.Wrap(oc.Transition))
}

func registerCatalog(api *router.Group, a API) {
	api.Get("/menu", "menu.index", ctx.Wrap(a.Menu.Index))
	menu := api.Group("/menu", a.managers()...)
	menu.Post("", "menu.store", ctx.Wrap(a.Menu.Store))
	menu.Put("/{id}", "menu.update", ctx.Wrap(a.Menu.Update))
	menu.Delete("/{id}", "menu.destroy", ctx.Wrap(a.Menu.Destroy))
	menu.Post("/{id}/image", "menu.image", ctx.Wrap(a.Menu.UploadImage))

	api.Get("/promotions", "promotions.active", ctx.Wrap(a.Promotions.Active))
	promos := api.Group("/promotions", a.managers()...)
	promos.Get("/all", "promotions.all", ctx.Wrap(a.Promotions.All))
	promos.Post("", "promotions.store", ctx.Wrap(a.Promotions.Store))
	promos.Put("/{id}", "promotions.update", ctx.Wrap(a.Promotions.Update))
	promos.Delete("/{id}", "promotions.destroy", ctx.Wrap(a.Promotions.Destroy))

	api.Get("/reviews", "reviews.index", ctx.Wrap(a.Reviews.Index))
	api.Post("/reviews", "reviews.store", ctx.Wrap(a.Reviews.Store), a.authed()...)
	api.Delete("/reviews/{id}", "reviews.destroy", ctx.Wrap(a.Reviews.Destroy), a.withRole()...)
}

func registerStats(api *router.Group, a API) {
	stats := api.Group("/stats", a.managers()...)
	stats.Get("/popular-products", "stats.popular", ctx.Wrap(a.Stats.PopularProducts))
	stats.Get("/revenue", "stats.revenue", ctx.Wrap(a.Stats.Revenue))
}
