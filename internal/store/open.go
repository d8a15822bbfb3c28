package store

import (
	"fmt"

	"smartbiz.ai/advisor/internal/config"
)

// Open returns the backend selected by STORE_DRIVER.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverBolt:
		return NewBoltStore(cfg.BoltPath)
	case config.DriverSQLite, "":
		return NewSQLiteStore(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
