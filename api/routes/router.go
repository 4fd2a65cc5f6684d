package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenloop-app/greenloop-backend/api/controllers"
	"github.com/greenloop-app/greenloop-backend/api/middleware"
	"github.com/greenloop-app/greenloop-backend/internal/dispatch"
	"github.com/greenloop-app/greenloop-backend/internal/orders"
	"github.com/greenloop-app/greenloop-backend/internal/rewards"
	"github.com/greenloop-app/greenloop-backend/internal/wallet"
	"github.com/greenloop-app/greenloop-backend/pkg/config"
	"github.com/greenloop-app/greenloop-backend/pkg/enums"
	"github.com/greenloop-app/greenloop-backend/pkg/logger"
	"github.com/greenloop-app/greenloop-backend/pkg/redis"
)

// Deps bundles everything the router needs wired in.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Redis    *redis.Client
	Health   map[string]controllers.Pinger
	Orders   orders.Service
	Dispatch dispatch.Service
	Rewards  rewards.Service
	Wallet   wallet.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Health))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Orders, deps.Dispatch, logg))
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.With(middleware.RequireRole(enums.UserRoleDelivery, logg)).
				Get("/courier", controllers.ListCourierOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			r.Post("/{orderId}/transition", controllers.RequestTransition(deps.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
			r.Post("/{orderId}/assign", controllers.AssignCourier(deps.Orders, logg))
			r.Post("/{orderId}/dispatch", controllers.DispatchOrder(deps.Dispatch, logg))
			r.With(middleware.RequireRole(enums.UserRoleDelivery, logg)).
				Post("/{orderId}/proof", controllers.CompleteWithProof(deps.Orders, logg))
			r.Delete("/{orderId}", controllers.DeleteOrder(deps.Orders, logg))
		})

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/me", controllers.PointsSummary(deps.Rewards, logg))
			r.Get("/leaderboard", controllers.Leaderboard(deps.Rewards, logg))
			r.Post("/backfill", controllers.RewardsBackfill(deps.Rewards, logg))
			r.With(middleware.RequireRole(enums.UserRoleAdmin, logg)).
				Post("/deduct", controllers.DeductPoints(deps.Rewards, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/balance", controllers.WalletBalance(deps.Wallet, logg))
			r.Get("/history", controllers.WalletHistory(deps.Wallet, logg))
			r.Post("/transactions", controllers.WalletAddTransaction(deps.Wallet, logg))
			r.Post("/convert", controllers.ConvertPoints(deps.Wallet, logg))
		})
	})

	return r
}
