package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/coupon-service/internal/delivery/http/handler"
	"github.com/user/coupon-service/internal/delivery/http/middleware"
	"go.uber.org/zap"
)

func New(h *handler.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics)

	r.Get("/api/health", h.HandleHealthCheck)
	r.Get("/api/coupons", h.HandleGetCoupons)
	r.Post("/api/coupons", h.HandleUpsertCoupons)
	r.Post("/api/coupons/scrape", h.HandleScrapeDomain)
	r.Delete("/api/coupons/stale", h.HandlePurgeStale)

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
