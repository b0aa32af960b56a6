// Package handlers contains HTTP health checks and middleware shared by
// the API server.
//
// # Health Checks
//
// The HealthChecker interface allows registering multiple named health
// checks that are executed in parallel:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("database", handlers.NewDatabaseCheck(db))
//	checker.AddCheck("cache", handlers.NewCacheCheck(cache))
//
//	status := checker.Check(ctx)
//	if !status.Healthy {
//	    log.Printf("Health check failed: %s", status.Message)
//	}
//
// # Middleware
//
//	// API key authentication
//	auth := handlers.NewAPIKeyAuth("X-API-Key", []string{"secret-key"})
//	protected := auth.Middleware(myHandler)
//
//	// Security headers
//	secure := handlers.SecurityHeadersMiddleware(myHandler)
//
//	// Request body size limit
//	limited := handlers.RequestSizeLimitMiddleware(1 << 20)(myHandler)
package handlers
