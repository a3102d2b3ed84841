// Package config loads the authentication core's settings from YAML
// files, .env files, and environment variables.
//
// Resolution order: config.yml provides the base, a .env file overlays
// it, and real environment variables win over both. Environment keys map
// onto nested settings by underscore splitting, so TOKEN_ACCESS_TTL
// reaches token.access_ttl. LoadSettings applies defaults and validates
// every section before returning.
package config
