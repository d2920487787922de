package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/iurnickita/clarsix/internal/model"
	"github.com/iurnickita/clarsix/internal/store/config"
)

type postgresStore struct {
	database *sql.DB
	ttl      time.Duration
}

func newPostgresStore(cfg config.Config) (*postgresStore, error) {
	db, err := sql.Open("pgx", cfg.DBDsn)
	if err != nil {
		return nil, err
	}

	// Таблица сессий.
	// Одна строка на сессию, токены хранятся в JSON как пришли от сервера
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS client_session (" +
			" id VARCHAR (36) PRIMARY KEY," +
			" tokens TEXT NOT NULL," +
			" viewer VARCHAR (64) NOT NULL," +
			" expires_at TIMESTAMP NOT NULL" +
			" );")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &postgresStore{
		database: db,
		ttl:      cfg.SessionTTL,
	}, nil
}

func (store *postgresStore) SessionPut(ctx context.Context, session Session) error {
	if err := validate(session); err != nil {
		return err
	}
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = time.Now().Add(store.ttl)
	}
	tokens, err := json.Marshal(session.Tokens)
	if err != nil {
		return err
	}

	//Запись сессии, повторный вход перезаписывает токены
	_, err = store.database.ExecContext(ctx,
		"INSERT INTO client_session (id, tokens, viewer, expires_at)"+
			" VALUES ($1, $2, $3, $4)"+
			" ON CONFLICT (id) DO UPDATE"+
			" SET tokens = EXCLUDED.tokens,"+
			"     viewer = EXCLUDED.viewer,"+
			"     expires_at = EXCLUDED.expires_at",
		session.ID,
		string(tokens),
		session.Viewer.String(),
		session.ExpiresAt.UTC())
	return err
}

func (store *postgresStore) SessionGet(ctx context.Context, id string) (Session, error) {
	//Получение сессии
	row := store.database.QueryRowContext(ctx,
		"SELECT id, tokens, viewer, expires_at"+
			" FROM client_session"+
			" WHERE id = $1"+
			"   AND expires_at > $2",
		id,
		time.Now().UTC())

	var session Session
	var tokens, viewer string
	err := row.Scan(&session.ID, &tokens, &viewer, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNoRows
		}
		return Session{}, err
	}
	if err := json.Unmarshal([]byte(tokens), &session.Tokens); err != nil {
		return Session{}, err
	}
	session.Viewer = model.NormalizeID(viewer)
	return session, nil
}

func (store *postgresStore) SessionDelete(ctx context.Context, id string) error {
	_, err := store.database.ExecContext(ctx,
		"DELETE FROM client_session WHERE id = $1",
		id)
	return err
}

func (store *postgresStore) Close() error {
	return store.database.Close()
}
