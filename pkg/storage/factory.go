package storage

import (
	"fmt"

	"github.com/jgwall/proj-livia/internal/constants"
)

func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", constants.StoreMemory:
		return NewMemoryStore(), nil
	case constants.StoreSQLite:
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
