// Package config provides configuration management for the circulation
// service.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file (via godotenv).
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings,
// divided into subsections:
//   - Server: admin HTTP server settings (port, API key)
//   - Database: MySQL/SQLite connection details
//   - Log: logging level and format
//   - Policy: reservation TTL, loan duration, default member limit
//   - Notify: notification dispatcher settings
//   - Sweep: expiry sweeper schedule
//
// Defaults are declared as `default` struct tags next to the `mapstructure`
// keys and bound by reflection, so every key is registered for AutomaticEnv.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
