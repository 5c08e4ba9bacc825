package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/clock"
	"github.com/erazemk/lekarna/internal/metrics"
	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/reconcile"
)

// Deps are the collaborators shared by all handlers.
type Deps struct {
	DB         *sqlx.DB
	JWTSecret  string
	Reconciler *reconcile.Reconciler
	Clock      clock.Clock
	Metrics    *metrics.Metrics
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret}
	usersHandler := &UsersHandler{DB: d.DB}
	categoriesHandler := &CategoriesHandler{DB: d.DB}
	productsHandler := &ProductsHandler{DB: d.DB, Reconciler: d.Reconciler}
	purchasesHandler := &PurchasesHandler{DB: d.DB, Reconciler: d.Reconciler, Clock: d.Clock}
	ordersHandler := &OrdersHandler{DB: d.DB, Reconciler: d.Reconciler, Clock: d.Clock}
	notificationsHandler := &NotificationsHandler{DB: d.DB, Reconciler: d.Reconciler, Clock: d.Clock}
	dashboardHandler := &DashboardHandler{DB: d.DB, Reconciler: d.Reconciler}
	reconcileHandler := &ReconcileHandler{Reconciler: d.Reconciler}
	activityHandler := &ActivityHandler{DB: d.DB}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Categories: read (all roles), write (manager+).
	mux.Handle("GET /api/categories", authMW(http.HandlerFunc(categoriesHandler.List)))
	mux.Handle("POST /api/categories", authMW(requireManager(http.HandlerFunc(categoriesHandler.Create))))

	// Products: read (all roles), write (manager+).
	mux.Handle("GET /api/products", authMW(http.HandlerFunc(productsHandler.List)))
	mux.Handle("POST /api/products", authMW(requireManager(http.HandlerFunc(productsHandler.Create))))
	mux.Handle("GET /api/products/{id}", authMW(http.HandlerFunc(productsHandler.Get)))
	mux.Handle("PUT /api/products/{id}", authMW(requireManager(http.HandlerFunc(productsHandler.Update))))
	mux.Handle("DELETE /api/products/{id}", authMW(requireManager(http.HandlerFunc(productsHandler.Delete))))

	// Purchases (stock-in): read (all roles), write (manager+).
	mux.Handle("GET /api/purchases", authMW(http.HandlerFunc(purchasesHandler.List)))
	mux.Handle("POST /api/purchases", authMW(requireManager(http.HandlerFunc(purchasesHandler.Create))))
	mux.Handle("GET /api/purchases/{id}", authMW(http.HandlerFunc(purchasesHandler.Get)))
	mux.Handle("PUT /api/purchases/{id}", authMW(requireManager(http.HandlerFunc(purchasesHandler.Update))))
	mux.Handle("DELETE /api/purchases/{id}", authMW(requireManager(http.HandlerFunc(purchasesHandler.Delete))))

	// Orders (stock-out, all roles).
	mux.Handle("GET /api/orders", authMW(http.HandlerFunc(ordersHandler.List)))
	mux.Handle("POST /api/orders", authMW(http.HandlerFunc(ordersHandler.Create)))
	mux.Handle("GET /api/orders/{id}", authMW(http.HandlerFunc(ordersHandler.Get)))
	mux.Handle("PUT /api/orders/{id}", authMW(http.HandlerFunc(ordersHandler.Update)))
	mux.Handle("DELETE /api/orders/{id}", authMW(http.HandlerFunc(ordersHandler.Delete)))

	// Notifications (all roles).
	mux.Handle("GET /api/notifications", authMW(http.HandlerFunc(notificationsHandler.List)))
	mux.Handle("POST /api/notifications/{id}/read", authMW(http.HandlerFunc(notificationsHandler.MarkRead)))
	mux.Handle("POST /api/notifications/{id}/touch", authMW(http.HandlerFunc(notificationsHandler.Touch)))
	mux.Handle("POST /api/notifications/{id}/ignore", authMW(http.HandlerFunc(notificationsHandler.Ignore)))

	mux.Handle("GET /api/dashboard", authMW(http.HandlerFunc(dashboardHandler.Get)))
	mux.Handle("POST /api/reconcile", authMW(requireManager(http.HandlerFunc(reconcileHandler.Run))))
	mux.Handle("GET /api/activity", authMW(requireAdmin(http.HandlerFunc(activityHandler.List))))

	return LoggingMiddleware(d.Metrics)(mux)
}
