package docstore

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/grinfood/config"
)

// Connect opens the Store selected by STORE_DRIVER (mongo, sql or memory).
// Returns an error instead of calling log.Fatal so the caller can shut down
// gracefully.
func Connect(ctx context.Context) (Store, error) {
	switch driver := config.StoreDriver(); driver {
	case "mongo":
		return OpenMongo(ctx, config.MongoURI(), config.MongoDatabase())
	case "sql":
		return OpenSQL(config.DatabaseDriver(), config.DatabaseDSN())
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q (supported: mongo, sql, memory)", driver)
	}
}
