package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pmarinho/analisador-fiscal/internal/api"
	"github.com/pmarinho/analisador-fiscal/internal/auth"
	"github.com/pmarinho/analisador-fiscal/internal/config"
	"github.com/pmarinho/analisador-fiscal/internal/model"
	"github.com/pmarinho/analisador-fiscal/internal/prefs"
	"github.com/pmarinho/analisador-fiscal/internal/registry"
	"github.com/pmarinho/analisador-fiscal/internal/state"
	"github.com/pmarinho/analisador-fiscal/internal/storage"
)

// initStore opens the durable client store with proper path expansion.
func initStore(ctx context.Context) (*storage.SQLiteStore, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	} else {
		dbPath = config.ExpandPath(dbPath)
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// storeTokens adapts the durable store to the transport's token source.
type storeTokens struct {
	store *storage.SQLiteStore
}

func (s storeTokens) Token(ctx context.Context) (string, error) {
	token, _, err := s.store.LoadToken(ctx)
	return token, err
}

// newClient builds the transport against the configured base URL, with
// the bearer token read from the durable store on every request.
func newClient(store *storage.SQLiteStore) *api.Client {
	return api.NewClient(viper.GetString("api.base_url"), storeTokens{store: store})
}

// loadSession reads and decodes the saved token, rejecting expired or
// absent sessions with a login hint.
func loadSession(ctx context.Context, store *storage.SQLiteStore) (auth.Claims, error) {
	token, ok, err := store.LoadToken(ctx)
	if err != nil {
		return auth.Claims{}, err
	}
	if !ok {
		return auth.Claims{}, fmt.Errorf("nenhuma sessão ativa; execute 'analisador login'")
	}
	claims, err := auth.DecodeClaims(token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("sessão inválida; execute 'analisador login': %w", err)
	}
	if claims.Expired(time.Now()) {
		return auth.Claims{}, fmt.Errorf("sessão expirada; execute 'analisador login'")
	}
	return claims, nil
}

// newStateStore builds the feature state store. Each key starts from the
// registry template; the ICMS analysis additionally seeds its ignored
// CFOP parameter from the persisted preference.
func newStateStore(ignored *prefs.IgnoredCFOPs) *state.Store {
	return state.NewStore(func(key model.ToolKey) model.ToolState {
		tool, err := registry.Lookup(key)
		if err != nil {
			return model.ToolState{}
		}
		st := tool.NewState()
		if key == model.ToolAnaliseICMS && ignored != nil {
			st.Parameters["cfopsIgnorados"] = ignored.Joined()
		}
		return st
	})
}
