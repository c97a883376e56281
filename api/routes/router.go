package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/sprinklerhub-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/sprinklerhub-backend/api/controllers/orders"
	"github.com/angelmondragon/sprinklerhub-backend/api/middleware"
	"github.com/angelmondragon/sprinklerhub-backend/internal/auth"
	"github.com/angelmondragon/sprinklerhub-backend/internal/businesses"
	"github.com/angelmondragon/sprinklerhub-backend/internal/cart"
	"github.com/angelmondragon/sprinklerhub-backend/internal/clients"
	"github.com/angelmondragon/sprinklerhub-backend/internal/favorites"
	"github.com/angelmondragon/sprinklerhub-backend/internal/invitations"
	"github.com/angelmondragon/sprinklerhub-backend/internal/jobs"
	"github.com/angelmondragon/sprinklerhub-backend/internal/memberships"
	"github.com/angelmondragon/sprinklerhub-backend/internal/notifications"
	"github.com/angelmondragon/sprinklerhub-backend/internal/orders"
	"github.com/angelmondragon/sprinklerhub-backend/internal/parts"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/auth/session"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/config"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/sprinklerhub-backend/pkg/redis"
)

// Dependencies is everything the HTTP surface needs. Nil rate limiter or
// idempotency stores disable those middlewares.
type Dependencies struct {
	Readiness   map[string]controllers.Pinger
	RateLimiter middleware.RateLimiterStore
	Idempotency pkgredis.IdempotencyStore
	Sessions    session.Resolver
	Users       middleware.UserResolver
	JobLoader   middleware.JobLoader
	HTTPMetrics *metrics.HTTPMetrics
	// MetricsHandler serves the Prometheus scrape endpoint when set.
	MetricsHandler http.Handler

	Auth          auth.Service
	Businesses    businesses.Service
	Parts         parts.Service
	Cart          cart.Service
	Jobs          jobs.Service
	Clients       clients.Service
	Orders        orders.Service
	Memberships   memberships.Service
	Invitations   invitations.Service
	Notifications notifications.Service
	Favorites     favorites.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	invitationPolicy := middleware.NewRateLimitPolicy(
		"invitation-validate",
		cfg.AuthRateLimit.InvitationWindow,
		middleware.ByIP(cfg.AuthRateLimit.InvitationIPLimit),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	requireAuth := middleware.RequireAuth(logg)
	tradieOrPM := middleware.RequireRole(logg, enums.UserRoleTradie, enums.UserRoleProjectManager)
	ownCompany := middleware.RequireCompanyAccess(ownBusiness, logg)
	idempotent := middleware.Idempotent(deps.Idempotency, middleware.IdempotencyTTL, logg)
	orderIdempotent := middleware.Idempotent(deps.Idempotency, middleware.OrderIdempotencyTTL, logg)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Session(cfg.Session, deps.Sessions, deps.Users, logg))
		r.Use(middleware.GuestCart(cfg.App.IsProd()))

		r.With(middleware.RateLimit(registerPolicy, deps.RateLimiter, logg), idempotent).Post("/register", controllers.AuthRegister(deps.Auth, cfg, logg))
		r.With(middleware.RateLimit(loginPolicy, deps.RateLimiter, logg)).Post("/login", controllers.AuthLogin(deps.Auth, cfg, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg, logg))
		r.With(requireAuth).Get("/user", controllers.AuthUser(deps.Auth, logg))
		r.With(middleware.RateLimit(invitationPolicy, deps.RateLimiter, logg)).Get("/invitations/validate", controllers.InvitationValidate(deps.Invitations, logg))
		r.Get("/businesses", controllers.BusinessDirectory(deps.Businesses, logg))

		r.Route("/parts", func(r chi.Router) {
			r.Get("/", controllers.PartsList(deps.Parts, logg))
			r.Get("/categories", controllers.PartCategories(deps.Parts, logg))
			r.Get("/{partId}", controllers.PartDetail(deps.Parts, logg))
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, middleware.RequireRole(logg, enums.UserRoleSupplier))
				r.Post("/", controllers.SupplierCreatePart(deps.Parts, logg))
				r.Put("/{partId}", controllers.SupplierUpdatePart(deps.Parts, logg))
				r.Delete("/{partId}", controllers.SupplierDeletePart(deps.Parts, logg))
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart, deps.Parts, logg))
			r.With(idempotent).Post("/", controllers.CartAdd(deps.Cart, logg))
			r.Put("/{itemId}", controllers.CartUpdate(deps.Cart, logg))
			r.Delete("/{itemId}", controllers.CartRemove(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Get("/unread-count", controllers.UnreadNotificationCount(deps.Notifications, logg))
				r.Put("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
				r.With(idempotent).Put("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			})

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", controllers.FavoritesList(deps.Favorites, deps.Parts, logg))
				r.Post("/{partId}", controllers.FavoriteAdd(deps.Favorites, logg))
				r.Delete("/{partId}", controllers.FavoriteRemove(deps.Favorites, logg))
			})

			r.Route("/jobs", func(r chi.Router) {
				r.Use(tradieOrPM)
				r.With(ownCompany).Get("/", controllers.JobsList(deps.Jobs, logg))
				r.With(middleware.RequireRole(logg, enums.UserRoleProjectManager), idempotent).Post("/", controllers.JobCreate(deps.Jobs, logg))
				r.With(middleware.ValidateJobAccess(deps.JobLoader, logg)).Get("/{jobId}", controllers.JobDetail(deps.Jobs, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Use(tradieOrPM)
				r.With(middleware.RequireOrderPermissions(logg), orderIdempotent).Post("/", ordercontrollers.Create(deps.Orders, logg))
				r.Get("/", ordercontrollers.ListMine(deps.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
				r.With(middleware.RequireOrderPermissions(logg), orderIdempotent).Post("/{orderId}/resubmit", ordercontrollers.Resubmit(deps.Orders, logg))
			})

			r.Route("/tradie", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleTradie))
				r.With(middleware.RequireApprovedTradie(logg)).Get("/jobs", controllers.TradieAssignedJobs(deps.Jobs, logg))
				r.Route("/invitations", func(r chi.Router) {
					r.Get("/", controllers.TradieInvitations(deps.Invitations, logg))
					r.Post("/{invitationId}/accept", controllers.TradieAcceptInvitation(deps.Invitations, logg))
					r.Post("/{invitationId}/reject", controllers.TradieRejectInvitation(deps.Invitations, logg))
				})
			})

			r.Route("/pm", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleProjectManager), ownCompany)

				r.Get("/business", controllers.PMBusiness(deps.Businesses, logg))
				r.Put("/business", controllers.PMUpdateBusiness(deps.Businesses, logg))
				r.Get("/parts", controllers.PartsList(deps.Parts, logg))

				r.Route("/orders", func(r chi.Router) {
					r.Get("/", ordercontrollers.PMList(deps.Orders, "", logg))
					r.Get("/pending", ordercontrollers.PMList(deps.Orders, enums.OrderStatusPendingApproval, logg))
					r.Get("/approved", ordercontrollers.PMList(deps.Orders, enums.OrderStatusApproved, logg))
					r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
					r.With(orderIdempotent).Post("/{orderId}/approve", ordercontrollers.Approve(deps.Orders, logg))
					r.With(orderIdempotent).Post("/{orderId}/reject", ordercontrollers.Reject(deps.Orders, logg))
					r.With(orderIdempotent).Post("/{orderId}/modify", ordercontrollers.Modify(deps.Orders, logg))
				})

				r.Route("/jobs", func(r chi.Router) {
					r.Get("/", controllers.JobsList(deps.Jobs, logg))
					r.With(idempotent).Post("/", controllers.JobCreate(deps.Jobs, logg))
					r.Route("/{jobId}", func(r chi.Router) {
						r.Use(middleware.ValidateJobAccess(deps.JobLoader, logg))
						r.Get("/", controllers.JobDetail(deps.Jobs, logg))
						r.Put("/", controllers.JobUpdate(deps.Jobs, logg))
						r.Delete("/", controllers.JobDelete(deps.Jobs, logg))
						r.Get("/tradies", controllers.JobAssignedTradies(deps.Jobs, logg))
						r.Post("/tradies", controllers.JobAssignTradie(deps.Jobs, logg))
						r.Delete("/tradies/{tradieId}", controllers.JobUnassignTradie(deps.Jobs, logg))
					})
				})

				r.Route("/tradies", func(r chi.Router) {
					r.Get("/", controllers.PMTradies(deps.Memberships, logg))
					r.With(idempotent).Post("/invite", controllers.PMInviteTradie(deps.Invitations, logg))
					r.Post("/{tradieId}/approve", controllers.PMApproveTradie(deps.Memberships, logg))
					r.Post("/{tradieId}/reject", controllers.PMRejectTradie(deps.Memberships, logg))
					r.Post("/{tradieId}/remove", controllers.PMRemoveTradie(deps.Memberships, logg))
				})

				r.Route("/invitations", func(r chi.Router) {
					r.Get("/", controllers.PMInvitations(deps.Invitations, logg))
					r.Delete("/{invitationId}", controllers.PMCancelInvitation(deps.Invitations, logg))
				})

				r.Route("/clients", func(r chi.Router) {
					r.Get("/", controllers.ClientsList(deps.Clients, logg))
					r.With(idempotent).Post("/", controllers.ClientCreate(deps.Clients, logg))
					r.Get("/{clientId}", controllers.ClientDetail(deps.Clients, logg))
					r.Put("/{clientId}", controllers.ClientUpdate(deps.Clients, logg))
					r.Delete("/{clientId}", controllers.ClientDelete(deps.Clients, logg))
				})
			})

			r.Route("/supplier", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleSupplier))
				r.Get("/orders", ordercontrollers.SupplierQueue(deps.Orders, logg))
				r.Get("/orders/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
				r.With(orderIdempotent).Put("/orders/{orderId}/status", ordercontrollers.SupplierAdvance(deps.Orders, logg))
				r.Put("/businesses/{businessId}/tier", controllers.SupplierSetPriceTier(deps.Businesses, logg))
			})
		})
	})

	return r
}

// ownBusiness targets the caller's own company, so RequireCompanyAccess only
// has to check their standing in it.
func ownBusiness(r *http.Request) (uint, error) {
	user := middleware.UserFromContext(r.Context())
	if user == nil || !user.HasBusiness() {
		return 0, pkgerrors.Denied("You must belong to a company", middleware.PermissionsFromContext(r.Context()).AccessLevel)
	}
	return *user.BusinessID, nil
}
