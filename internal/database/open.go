package database

import (
	"fmt"
	"strings"
)

// Open picks a backend from the storage URL:
//
//	sqlite:///path/to/state.db, file:state.db or a bare path -> SQLite
//	postgres://... or postgresql://...                       -> PostgreSQL
//	redis://... or rediss://...                              -> Redis
//	memory://                                                -> process memory
func Open(storageURL string) (KV, error) {
	kind, target, err := ParseStorageURL(storageURL)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "memory":
		return NewMemoryKV(), nil
	case "redis":
		return NewRedisKV(target)
	case string(DialectPostgres):
		db, err := NewPostgres(target)
		if err != nil {
			return nil, err
		}
		return NewStateRepository(db), nil
	default:
		db, err := NewSQLite(target)
		if err != nil {
			return nil, err
		}
		return NewStateRepository(db), nil
	}
}

// ParseStorageURL returns the backend kind and the connection target for it
func ParseStorageURL(storageURL string) (kind, target string, err error) {
	u := strings.TrimSpace(storageURL)
	if u == "" {
		return "", "", fmt.Errorf("storage url is empty")
	}
	lower := strings.ToLower(u)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return string(DialectPostgres), u, nil
	case strings.HasPrefix(lower, "redis://"), strings.HasPrefix(lower, "rediss://"):
		return "redis", u, nil
	case strings.HasPrefix(lower, "memory://"):
		return "memory", "", nil
	case strings.HasPrefix(lower, "sqlite://"):
		return string(DialectSQLite), u[len("sqlite://"):], nil
	case strings.HasPrefix(lower, "file:"):
		return string(DialectSQLite), u[len("file:"):], nil
	case strings.Contains(lower, "://"):
		return "", "", fmt.Errorf("unsupported storage url scheme: %s", u[:strings.Index(u, "://")])
	default:
		return string(DialectSQLite), u, nil
	}
}
