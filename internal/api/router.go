package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/izposoja/internal/audit"
	"github.com/erazemk/izposoja/internal/lease"
	"github.com/erazemk/izposoja/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, engine *lease.Engine, auditor *audit.Auditor, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	requestsHandler := &RequestsHandler{Engine: engine, Store: db}
	leasesHandler := &LeasesHandler{Engine: engine, Store: db}
	auditHandler := &AuditHandler{Auditor: auditor}

	authMW := AuthMiddleware(jwtSecret, db)
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

	// Items: read (all roles), write (manager+).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireManager(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("POST /api/items/{id}/restock", authMW(requireManager(http.HandlerFunc(itemsHandler.Restock))))
	mux.Handle("PUT /api/items/{id}/image", authMW(requireManager(http.HandlerFunc(itemsHandler.UploadImage))))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))

	// Lease requests: submit/list/get/cancel (all roles), decide (manager+).
	mux.Handle("POST /api/requests", authMW(http.HandlerFunc(requestsHandler.Submit)))
	mux.Handle("GET /api/requests", authMW(http.HandlerFunc(requestsHandler.List)))
	mux.Handle("GET /api/requests/{id}", authMW(http.HandlerFunc(requestsHandler.Get)))
	mux.Handle("POST /api/requests/{id}/approve", authMW(requireManager(http.HandlerFunc(requestsHandler.Approve))))
	mux.Handle("POST /api/requests/{id}/reject", authMW(requireManager(http.HandlerFunc(requestsHandler.Reject))))
	mux.Handle("DELETE /api/requests/{id}", authMW(http.HandlerFunc(requestsHandler.Cancel)))

	// Active leases: list (all roles), direct lease (admin), return (manager+).
	mux.Handle("GET /api/leases", authMW(http.HandlerFunc(leasesHandler.List)))
	mux.Handle("POST /api/leases", authMW(requireAdmin(http.HandlerFunc(leasesHandler.Create))))
	mux.Handle("POST /api/leases/{id}/return", authMW(requireManager(http.HandlerFunc(leasesHandler.Return))))

	// Reconciliation (manager+).
	mux.Handle("POST /api/audit", authMW(requireManager(http.HandlerFunc(auditHandler.Run))))
	mux.Handle("GET /api/audit/reminders", authMW(requireManager(http.HandlerFunc(auditHandler.Reminders))))

	return mux
}
