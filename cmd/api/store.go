package main

import (
	"context"
	"fmt"

	"github.com/zhouzirui/emotibot/backend/internal/config"
	"github.com/zhouzirui/emotibot/backend/internal/database"
	"github.com/zhouzirui/emotibot/backend/internal/repository"
	"github.com/zhouzirui/emotibot/backend/internal/repository/postgres"
	"github.com/zhouzirui/emotibot/backend/internal/repository/sqlite"
	"github.com/zhouzirui/emotibot/backend/internal/repository/supabase"
	"github.com/zhouzirui/emotibot/backend/internal/service/auth"
)

// openStore 按配置的驱动打开两张表，并返回对应的账号注册方式。
func openStore(ctx context.Context, cfg config.StoreConfig) (repository.Store, auth.Provider, error) {
	switch cfg.Driver {
	case config.DriverSupabase:
		client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return repository.Store{}, nil, err
		}
		return supabase.NewStore(client), supabase.NewAuthProvider(client), nil

	case config.DriverPostgres:
		pool, err := database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return repository.Store{}, nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return repository.Store{}, nil, err
		}
		return postgres.NewStore(pool), auth.LocalProvider{}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return repository.Store{}, nil, err
		}
		return sqlite.NewStore(db), auth.LocalProvider{}, nil

	case config.DriverMemory:
		return repository.NewMemoryStore().Store(), auth.LocalProvider{}, nil
	}
	return repository.Store{}, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
