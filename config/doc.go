// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml, overridden by environment
// variables (APP_ENV, PORT, DATABASE_DSN, JWT_SECRET, CLIENT_ORIGIN, with
// .env support), and validated using struct tags. Production deployments
// refuse to start with the default JWT secret.
package config
