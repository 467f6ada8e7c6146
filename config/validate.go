package config

import "errors"

// Validate enforces the required startup surface: a missing bot token,
// database DSN, polling interval or attempt ceiling is a fatal startup
// error, not a runtime fallback.
func Validate(cfg AppConfig) error {
	if cfg.Bot.Token == "" {
		return errors.New("config: bot.token is required")
	}
	if cfg.Database.DSN == "" {
		return errors.New("config: database.dsn is required")
	}
	if cfg.Checker.IntervalSeconds <= 0 {
		return errors.New("config: checker.intervalSeconds must be positive")
	}
	if cfg.Checker.AttemptsLimit <= 0 {
		return errors.New("config: checker.attemptsLimit must be positive")
	}
	return nil
}
