package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/THXNXKXT/qr-studios-sub002/api/controllers"
	"github.com/THXNXKXT/qr-studios-sub002/api/middleware"
	"github.com/THXNXKXT/qr-studios-sub002/internal/ledger"
	"github.com/THXNXKXT/qr-studios-sub002/internal/notifications"
	"github.com/THXNXKXT/qr-studios-sub002/internal/profile"
	"github.com/THXNXKXT/qr-studios-sub002/internal/rewards"
	"github.com/THXNXKXT/qr-studios-sub002/internal/wallet"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/config"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/logger"
	pkgredis "github.com/THXNXKXT/qr-studios-sub002/pkg/redis"
)

// RouterParams collects everything the HTTP surface depends on.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            controllers.Pinger
	Redis         *pkgredis.Client
	Registry      *prometheus.Registry
	Wallet        wallet.Service
	Ledger        ledger.Service
	Rewards       rewards.Service
	Distributor   rewards.Distributor
	Profile       profile.Service
	Notifications notifications.Service
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.DB, p.Redis, p.Logger))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	var idempotencyStore pkgredis.IdempotencyStore
	if p.Redis != nil {
		idempotencyStore = p.Redis
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))
		r.Use(middleware.Idempotency(p.Config.Ledger, idempotencyStore, p.Logger))

		r.Get("/profile", controllers.GetProfile(p.Profile, p.Logger))
		r.Patch("/profile", controllers.UpdateProfile(p.Profile, p.Logger))

		r.Post("/spin", controllers.Spin(p.Distributor, p.Logger))
		r.Get("/spin/history", controllers.SpinHistory(p.Rewards, p.Logger))
		r.Get("/rewards", controllers.ListRewards(p.Rewards, p.Logger))

		r.Get("/transactions", controllers.ListTransactions(p.Ledger, p.Logger))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, p.Logger))
			r.Post("/{id}/read", controllers.MarkNotificationRead(p.Notifications, p.Logger))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, p.Logger))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))
		r.Use(middleware.RequireRole(string(enums.ActorRoleAdmin), p.Logger))
		r.Use(middleware.Idempotency(p.Config.Ledger, idempotencyStore, p.Logger))

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/", controllers.AdminListRewards(p.Rewards, p.Logger))
			r.Post("/", controllers.AdminCreateReward(p.Rewards, p.Logger))
			r.Put("/{id}", controllers.AdminUpdateReward(p.Rewards, p.Logger))
			r.Delete("/{id}", controllers.AdminDeleteReward(p.Rewards, p.Logger))
		})

		r.Route("/users/{userId}", func(r chi.Router) {
			r.Post("/wallet/credit", controllers.AdminWalletCredit(p.Wallet, p.Logger))
			r.Post("/wallet/debit", controllers.AdminWalletDebit(p.Wallet, p.Logger))
			r.Post("/points/credit", controllers.AdminPointsCredit(p.Wallet, p.Logger))
			r.Post("/points/debit", controllers.AdminPointsDebit(p.Wallet, p.Logger))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateTransaction(p.Ledger, p.Logger))
			r.Post("/{id}/complete", controllers.AdminCompleteTransaction(p.Ledger, p.Logger))
			r.Post("/{id}/cancel", controllers.AdminCancelTransaction(p.Ledger, p.Logger))
		})
	})

	return r
}
