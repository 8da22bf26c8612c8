package router

import (
	"log"
	"net/http"

	"github.com/foodcourt/api/internal/app"
	"github.com/foodcourt/api/internal/catalog"
	"github.com/foodcourt/api/internal/config"
	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/events"
	"github.com/foodcourt/api/internal/handler"
	"github.com/foodcourt/api/internal/kv"
	mw "github.com/foodcourt/api/internal/middleware"
	"github.com/foodcourt/api/internal/model"
	"github.com/foodcourt/api/internal/records"
	"github.com/foodcourt/api/internal/service"
	"github.com/foodcourt/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// New creates a Chi router with all application routes wired up.
// backend holds every record table, store holds carts and sessions, and
// order events go to publisher (nil drops them).
func New(cfg *config.Config, backend records.Backend, store kv.Store, hub *ws.Hub, publisher events.Publisher) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Services
	catalogService := catalog.NewService(backend)
	orderService := service.NewOrderService(records.NewTable[model.Order](backend, enum.TableOrders), publisher)
	userService := service.NewUserService(records.NewTable[model.User](backend, enum.TableUsers))
	shop := app.NewDispatcher(catalogService, orderService, app.NewSessions(store))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	authHandler := handler.NewAuthHandler(userService, shop, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Generic record API, admin only
	if cfg.ServeTables {
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))
			r.Use(mw.RequireRole(enum.UserRoleAdmin))
			handler.NewTableHandler(backend).RegisterRoutes(r)
		})
	}

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		authHandler.RegisterAuthenticatedRoutes(r)

		shopHandler := handler.NewShopHandler(catalogService, shop)
		shopHandler.RegisterRoutes(r)

		orderHandler := handler.NewOrderHandler(orderService, cfg.PublicBaseURL)
		orderHandler.RegisterRoutes(r)

		// Admin-only routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))

			orderHandler.RegisterAdminRoutes(r)
			handler.NewCatalogHandler(catalogService).RegisterRoutes(r)

			userHandler := handler.NewUserHandler(userService)
			r.Route("/users", userHandler.RegisterRoutes)

			reportsHandler := handler.NewReportsHandler(orderService, catalogService)
			r.Route("/reports", reportsHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
