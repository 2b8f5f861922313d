package store

import (
	"fmt"
	"strings"
)

// Open returns the store named by driver: "memory" or "sqlite".
func Open(driver, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("store: sqlite driver needs a path")
		}
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}
