// Package middleware provides the Gin middleware chain for services
// built on the authentication core: request identification, panic
// recovery, request logging, bearer-token authentication backed by the
// gateway, and class-based rate limiting.
//
// Typical wiring:
//
//	engine := gin.New()
//	engine.Use(
//		middleware.RequestID(),
//		middleware.Recovery(log),
//		middleware.RequestLogger(log),
//	)
//	api := engine.Group("/api", middleware.BearerAuth(gw))
//	api.GET("/orders", middleware.RateLimit(gw, ratelimit.ClassQuery), listOrders)
package middleware
