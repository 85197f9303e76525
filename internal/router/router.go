package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/washpoint/api/internal/config"
	"github.com/washpoint/api/internal/database"
	"github.com/washpoint/api/internal/enum"
	"github.com/washpoint/api/internal/handler"
	mw "github.com/washpoint/api/internal/middleware"
	"github.com/washpoint/api/internal/service"
	"github.com/washpoint/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool service.TxBeginner, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret, cfg.JWTRefreshSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket order feed (authenticates via query param)
	r.Get("/ws/outlets/{oid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		authHandler.RegisterProtectedRoutes(r)

		outletHandler := handler.NewOutletHandler(queries)
		outletHandler.RegisterReadRoutes(r)

		customerHandler := handler.NewCustomerHandler(queries)
		customerHandler.RegisterRoutes(r)

		serviceHandler := handler.NewServiceHandler(queries)
		serviceHandler.RegisterRoutes(r)

		voucherHandler := handler.NewVoucherHandler(queries)
		voucherHandler.RegisterReadRoutes(r)

		newOrderStore := func(db database.DBTX) service.OrderStore {
			return database.New(db)
		}
		orderService := service.NewOrderService(queries, pool, newOrderStore)
		orderHandler := handler.NewOrderHandler(orderService, hub)
		orderHandler.RegisterRoutes(r)

		reportHandler := handler.NewReportHandler(queries)
		reportHandler.RegisterRoutes(r)

		// Management routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleSuperadmin, enum.UserRoleAdmin))

			userHandler := handler.NewUserHandler(queries)
			userHandler.RegisterRoutes(r)

			voucherHandler.RegisterAdminRoutes(r)
		})

		// Superadmin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleSuperadmin))
			outletHandler.RegisterAdminRoutes(r)
		})
	})

	return r
}
