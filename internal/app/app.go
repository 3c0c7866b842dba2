// Package app assembles GrinFood from configuration: it connects the
// document store, cache, storage disk, mailer and vendor clients, builds the
// repositories and services on top, and exposes the result to the server and
// the CLI commands.
//
//	a, err := app.Boot(ctx)
//	if err != nil { ... }
//	defer a.Close(ctx)
//	srv := server.New(a)
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/grinfood/app/controllers"
	appgraphql "github.com/shashiranjanraj/grinfood/app/graphql"
	"github.com/shashiranjanraj/grinfood/app/jobs"
	"github.com/shashiranjanraj/grinfood/app/repositories"
	"github.com/shashiranjanraj/grinfood/app/routes"
	"github.com/shashiranjanraj/grinfood/app/services"
	"github.com/shashiranjanraj/grinfood/config"
	"github.com/shashiranjanraj/grinfood/pkg/auth"
	"github.com/shashiranjanraj/grinfood/pkg/cache"
	"github.com/shashiranjanraj/grinfood/pkg/docstore"
	"github.com/shashiranjanraj/grinfood/pkg/event"
	"github.com/shashiranjanraj/grinfood/pkg/graphql"
	"github.com/shashiranjanraj/grinfood/pkg/identity"
	"github.com/shashiranjanraj/grinfood/pkg/logger"
	"github.com/shashiranjanraj/grinfood/pkg/mail"
	"github.com/shashiranjanraj/grinfood/pkg/metrics"
	"github.com/shashiranjanraj/grinfood/pkg/payment"
	"github.com/shashiranjanraj/grinfood/pkg/queue"
	"github.com/shashiranjanraj/grinfood/pkg/schedule"
	"github.com/shashiranjanraj/grinfood/pkg/sms"
	"github.com/shashiranjanraj/grinfood/pkg/sse"
	"github.com/shashiranjanraj/grinfood/pkg/storage"
	"github.com/shashiranjanraj/grinfood/pkg/workerpool"
	"github.com/shashiranjanraj/grinfood/pkg/ws"
)

// PurgeSweepTask is the scheduler id of the purge backlog sweep.
const PurgeSweepTask = "purge:sweep"

// Application holds every long-lived component.
type Application struct {
	Store     docstore.Store
	Redis     *redis.Client // nil when Redis is unreachable
	Cache     cache.Cache
	Disk      storage.Disk
	Mailer    mail.Sender
	Queue     *queue.Manager
	Pool      *workerpool.Pool
	Bus       *event.Bus
	Hub       *ws.Hub
	Broker    *sse.Broker
	Scheduler *schedule.Scheduler

	Identities *identity.Local
	Roles      *repositories.RoleStore

	Accounts   *services.AccountService
	Purge      *services.PurgeService
	Orders     *services.OrderService
	Menu       *services.MenuService
	Promotions *services.PromotionService
	Reviews    *services.ReviewService
	Stats      *services.StatsService
	Payments   *services.PaymentService
	Verify     *services.VerifyService

	API routes.API
}

// Boot connects every backend named in the configuration and wires the
// services. Redis is optional: without it the cache and the queue fall back
// to memory.
func Boot(ctx context.Context) (*Application, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if uri := config.Get("LOG_MONGO_URI", ""); uri != "" {
		if err := logger.UseMongo(uri, config.MongoDatabase(), "logs"); err != nil {
			logger.Warn("log sink unavailable, logging to stdout only", "error", err)
		}
	}

	store, err := docstore.Connect(ctx)
	if err != nil {
		return nil, err
	}
	a := &Application{Store: store}

	if rdb, err := cache.Connect(ctx); err != nil {
		logger.Warn("redis unavailable, using in-memory cache and queue", "error", err)
		a.Cache = cache.NewMemory()
	} else {
		a.Redis = rdb
		a.Cache = cache.NewRedis(rdb)
	}

	if a.Disk, err = storage.Open(ctx); err != nil {
		return nil, errors.Join(err, a.Close(ctx))
	}
	if a.Mailer, err = mail.FromConfig(); err != nil {
		return nil, errors.Join(err, a.Close(ctx))
	}

	signer := auth.NewSigner(config.JWTSecret(), config.TokenTTL())
	if a.Identities, err = identity.NewLocal(ctx, store, signer, config.AppURL()); err != nil {
		return nil, errors.Join(err, a.Close(ctx))
	}

	a.Queue = queue.New(a.queueDriver(ctx))
	a.Queue.UseStore(store)
	jobs.Register(a.Queue, a.Mailer)

	a.Pool = workerpool.New(config.Int("EVENT_WORKERS", 4))
	a.Bus = event.New(a.Pool)
	a.Hub = ws.NewHub()
	a.Broker = sse.NewBroker()
	a.listen()

	a.wireServices()
	a.Scheduler = schedule.New()
	a.Scheduler.Interval(config.PurgeSweepInterval()).
		Name(PurgeSweepTask).
		WithoutOverlapping().
		Run(a.sweep)

	if err := a.wireHTTP(); err != nil {
		return nil, errors.Join(err, a.Close(ctx))
	}
	return a, nil
}

func (a *Application) queueDriver(ctx context.Context) queue.Driver {
	if config.QueueDriver() == "redis" {
		if a.Redis != nil {
			return queue.NewRedisDriver(ctx, a.Redis)
		}
		logger.Warn("QUEUE_DRIVER=redis but redis is unavailable, using memory queue")
	}
	return queue.NewMemoryDriver()
}

// listen fans order events out to the manager dashboard and, for status
// changes, to the owning customer's SSE streams.
func (a *Application) listen() {
	broadcast := func(ctx context.Context, e event.Event) {
		if err := a.Hub.Broadcast(e); err != nil {
			logger.WithCtx(ctx).Warn("order feed: broadcast failed", "event", e.Name, "error", err)
		}
	}
	a.Bus.Listen(event.OrderCreated, broadcast)
	a.Bus.Listen(event.OrderStatusChanged, broadcast)
	a.Bus.Listen(event.OrderStatusChanged, func(_ context.Context, e event.Event) {
		if change, ok := e.Payload.(services.StatusChange); ok {
			a.Broker.Publish(change.Order.UserID, e.Name, change)
		}
	})
}

func (a *Application) wireServices() {
	a.Roles = repositories.NewRoleStore(a.Store)
	orders := repositories.NewOrderRepository(a.Store)
	reviews := repositories.NewReviewRepository(a.Store)

	a.Accounts = services.NewAccountService(a.Identities, a.Roles, a.Queue, config.AppURL())
	a.Purge = services.NewPurgeService(a.Identities, a.Roles, orders, reviews, repositories.NewBacklogRepository(a.Store))
	a.Orders = services.NewOrderService(orders, a.Bus)
	a.Menu = services.NewMenuService(repositories.NewMenuRepository(a.Store), a.Cache, a.Disk)
	a.Promotions = services.NewPromotionService(repositories.NewPromotionRepository(a.Store))
	a.Reviews = services.NewReviewService(reviews, a.Identities)
	a.Stats = services.NewStatsService(orders)
	a.Payments = services.NewPaymentService(
		payment.NewStripe(config.StripeSecretKey(), config.StripeBaseURL()), orders)
	a.Verify = services.NewVerifyService(sms.NewTwilio(
		config.TwilioAccountSID(), config.TwilioAuthToken(), config.TwilioServiceSID(), config.TwilioBaseURL()))
}

func (a *Application) wireHTTP() error {
	schema, err := appgraphql.NewSchema(appgraphql.ServiceCatalog{
		MenuService:      a.Menu,
		PromotionService: a.Promotions,
		ReviewService:    a.Reviews,
	})
	if err != nil {
		return fmt.Errorf("graphql: %w", err)
	}

	a.API = routes.API{
		Resolver:   services.NewIdentityResolver(a.Identities),
		Roles:      a.Roles,
		Accounts:   controllers.NewAccountController(a.Accounts, a.Purge, config.AppURL()),
		Orders:     controllers.NewOrderController(a.Orders, a.Payments),
		Menu:       controllers.NewMenuController(a.Menu),
		Promotions: controllers.NewPromotionController(a.Promotions),
		Reviews:    controllers.NewReviewController(a.Reviews),
		Stats:      controllers.NewStatsController(a.Stats),
		Verify:     controllers.NewVerifyController(a.Verify),
		Feed:       controllers.NewFeedController(a.Hub, a.Broker),
		GraphQL:    graphql.Handler(schema),
		Metrics:    metrics.Handler(),
	}
	// S3 objects are served by the bucket; only the local disk needs a route.
	if local, ok := a.Disk.(*storage.LocalDisk); ok {
		a.API.Files = http.FileServer(http.Dir(local.Root()))
	}
	return nil
}

func (a *Application) sweep(ctx context.Context) error {
	report, err := a.Purge.Sweep(ctx)
	if err != nil {
		return err
	}
	if report.Retried > 0 {
		logger.WithCtx(ctx).Info("purge sweep finished",
			"retried", report.Retried, "completed", report.Completed, "remaining", report.Remaining)
	}
	return nil
}

// Close releases the connections opened by Boot. Background loops must have
// been stopped by the caller.
func (a *Application) Close(ctx context.Context) error {
	if a.Pool != nil {
		a.Pool.Shutdown()
	}
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close(ctx))
	}
	logger.Close()
	return errors.Join(errs...)
}
