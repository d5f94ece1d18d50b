// Package observability provides structured logging, Prometheus metrics,
// health checks, graceful shutdown and OpenTelemetry tracing for the
// dashboard.
//
// # Structured Logging
//
// Logger wraps logrus with a JSON formatter:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("path", r.URL.Path).Info("gate redirect")
//
// Request scoped loggers carry the request id, the session role and, when
// a span is recording, the trace and span ids:
//
//	observability.FromContext(r.Context()).Warn("menu fetch failed")
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//	metrics.GateDecisionsTotal.WithLabelValues("deny").Inc()
//
// # Health Checks
//
// Liveness always answers 200. Readiness pings Redis (when sessions live
// there) and the remote API:
//
//	checker := observability.NewHealthChecker(redisClient, apiClient, version)
//	observability.RegisterHealthRoutes(mux, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "fesim-dashboard",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
package observability
