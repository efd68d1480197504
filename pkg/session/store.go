// Package session persists per-session conversation history behind a small
// Store interface with memory, SQLite, Redis and PostgreSQL backends.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/jemygraw/deepresearch/pkg/config"
	"github.com/jemygraw/deepresearch/pkg/core"
)

// Store persists the turns of each conversation. Append adds turns in order;
// History returns every stored turn, oldest first.
type Store interface {
	Append(ctx context.Context, sessionID string, turns ...core.Turn) error
	History(ctx context.Context, sessionID string) ([]core.Turn, error)
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

// New builds the backend named in the configuration.
func New(cfg config.SessionConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSqliteStore(SqliteOptions{Path: cfg.SQLitePath})
	case "redis":
		return NewRedisStore(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), nil
	case "postgres":
		return NewPostgresStore(context.Background(), PostgresOptions{ConnString: cfg.PostgresURL})
	default:
		return nil, fmt.Errorf("unknown session backend: %s", cfg.Backend)
	}
}

// Window returns the most recent n turns. n <= 0 means no limit.
func Window(turns []core.Turn, n int) []core.Turn {
	if n <= 0 || len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

// FormatHistory renders turns as "role: content" lines, the form the prompts
// embed conversation context in.
func FormatHistory(turns []core.Turn) string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = fmt.Sprintf("%s: %s", t.Role, t.Content)
	}
	return strings.Join(lines, "\n")
}
