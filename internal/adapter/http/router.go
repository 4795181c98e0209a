package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/logger"
)

type Handlers struct {
	Orders   *OrderHandler
	Catalog  *CatalogHandler
	Sessions *SessionHandler
}

func NewRouter(h Handlers, logger logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(LoggingMiddleware(logger), RecoveryMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/session", func(r chi.Router) {
		r.Get("/", h.Sessions.Current)
		r.Post("/login", h.Sessions.Login)
		r.Post("/logout", h.Sessions.Logout)
	})
	r.Get("/sessions", h.Sessions.Sessions)
	r.Get("/views", h.Sessions.View)
	r.Get("/views/{view}", h.Sessions.View)

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.Sessions.Notifications)
		r.Get("/active", h.Sessions.ActiveNotifications)
		r.Post("/{id}/dismiss", h.Sessions.DismissNotification)
	})
	r.Get("/admin/report.xlsx", h.Sessions.Report)

	r.Get("/catalog", h.Catalog.Get)
	r.Post("/catalog/refresh", h.Catalog.Refresh)
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.Catalog.CreateProduct)
		r.Put("/{id}", h.Catalog.UpdateProduct)
		r.Delete("/{id}", h.Catalog.DeleteProduct)
	})
	r.Route("/menu", func(r chi.Router) {
		r.Post("/generate", h.Catalog.GenerateMenu)
		r.Get("/generated", h.Catalog.GeneratedMenu)
		r.Post("/approve", h.Catalog.ApproveItem)
	})

	r.Route("/orders", h.Orders.RegisterRoutes)

	return r
}
