package main

import (
	"context"
	"fmt"
	"log/slog"

	firebasesdk "firebase.google.com/go/v4"

	"pollhub/internal/config"
	"pollhub/internal/gateway"
	"pollhub/internal/gateway/firestoregw"
	"pollhub/internal/gateway/memory"
	"pollhub/internal/gateway/sqlgw"
	api "pollhub/internal/http"
	"pollhub/internal/platform/database"
	"pollhub/internal/platform/firebase"
	jwtpkg "pollhub/internal/platform/jwt"
)

type store struct {
	gw    gateway.Gateway
	ready api.ReadyFunc
	close func() error
}

// lazyFirebase shares one Admin SDK app between the firestore store and
// the firebase identity provider.
type lazyFirebase struct {
	cfg config.Config
	app *firebasesdk.App
}

func (l *lazyFirebase) get(ctx context.Context) (*firebasesdk.App, error) {
	if l.app != nil {
		return l.app, nil
	}
	app, err := firebase.NewApp(ctx, l.cfg.FirebaseProjectID, l.cfg.FirebaseCredentialsFile)
	if err != nil {
		return nil, err
	}
	l.app = app
	return app, nil
}

func sqlDialect(driver string) string {
	if driver == config.DriverSQLite {
		return database.SQLite
	}
	return database.Postgres
}

func openStore(ctx context.Context, cfg config.Config, fb *lazyFirebase, logger *slog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return &store{gw: memory.New(gateway.Constraints...), close: func() error { return nil }}, nil

	case config.DriverFirestore:
		app, err := fb.get(ctx)
		if err != nil {
			return nil, err
		}
		client, err := firebase.Firestore(ctx, app)
		if err != nil {
			return nil, err
		}
		return &store{gw: firestoregw.New(client, gateway.Constraints...), close: client.Close}, nil

	case config.DriverPostgres, config.DriverSQLite:
		dialect := sqlDialect(cfg.StoreDriver)
		db, err := database.Open(ctx, dialect, cfg.DB_DSN)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db, dialect); err != nil {
			_ = db.Close()
			return nil, err
		}
		gw, err := sqlgw.New(db, dialect)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &store{gw: gw, ready: db.PingContext, close: db.Close}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// newIdentity returns the token verifier and, for local identity, the
// manager that issues tokens.
func newIdentity(ctx context.Context, cfg config.Config, fb *lazyFirebase) (api.Verifier, *jwtpkg.Manager, error) {
	if cfg.IdentityProvider == config.IdentityFirebase {
		app, err := fb.get(ctx)
		if err != nil {
			return nil, nil, err
		}
		v, err := firebase.NewVerifier(ctx, app)
		if err != nil {
			return nil, nil, err
		}
		return v, nil, nil
	}
	jm := jwtpkg.NewManager(cfg.JWTSecret, "pollhub")
	return jm, jm, nil
}
