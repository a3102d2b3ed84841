// Package logger provides structured logging for the authentication core,
// built on zerolog.
//
// Components obtain a tagged logger via WithComponent and attach structured
// fields with the Fields helper:
//
//	log := logger.NewDefault("authcore").WithComponent("ratelimit")
//	log.Warn("rate limit exceeded", logger.Fields(
//	    "identifier", id,
//	    "limit", cfg.MaxRequests,
//	))
//
// Security-sensitive values (passwords, raw tokens) must never be logged;
// callers log token/session identifiers only.
package logger
