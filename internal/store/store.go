package store

import (
	"context"
	"errors"
	"time"

	"github.com/iurnickita/clarsix/internal/model"
	"github.com/iurnickita/clarsix/internal/store/config"
	"github.com/iurnickita/clarsix/internal/token"
)

// Store - кэш сессий. Единственное, что клиент хранит между перезагрузками,
// это пара токенов; данные заказов и пользователей всегда запрашиваются заново.
type Store interface {
	SessionPut(ctx context.Context, session Session) error
	SessionGet(ctx context.Context, id string) (Session, error)
	SessionDelete(ctx context.Context, id string) error
	Close() error
}

var (
	ErrNoRows       = errors.New("no rows")
	ErrInsufficient = errors.New("insufficient session data")
)

type Session struct {
	ID        string     `json:"id"`
	Tokens    token.Pair `json:"tokens"`
	Viewer    model.ID   `json:"viewer"`
	ExpiresAt time.Time  `json:"expires_at"`
}

func (s Session) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

const defaultSessionTTL = 24 * time.Hour

// NewStore выбирает хранилище по конфигурации:
// PostgreSQL, если задан DSN, затем Redis, иначе память процесса.
func NewStore(cfg config.Config) (Store, error) {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	switch {
	case cfg.DBDsn != "":
		return newPostgresStore(cfg)
	case cfg.RedisAddr != "":
		return newRedisStore(cfg)
	default:
		return newMemoryStore(cfg), nil
	}
}

func validate(session Session) error {
	if session.ID == "" || session.Tokens.AccessToken == "" {
		return ErrInsufficient
	}
	return nil
}
