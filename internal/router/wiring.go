package router

import (
	"fmt"

	authmem "bovine-monitoring/internal/adapters/auth/memory"
	authsb "bovine-monitoring/internal/adapters/auth/supabase"
	objsb "bovine-monitoring/internal/adapters/objectstore/supabase"
	pg "bovine-monitoring/internal/adapters/storage/postgres"
	storesb "bovine-monitoring/internal/adapters/storage/supabase"
	"bovine-monitoring/internal/platform/config"
	"bovine-monitoring/internal/platform/logger"
	sbplatform "bovine-monitoring/internal/platform/supabase"
)

// OptionsFromConfig arma adapters según la configuración. El cleanup devuelto
// cierra lo que haya quedado abierto (pool de Postgres).
func OptionsFromConfig(cfg config.Config, log logger.Logger) (Options, func(), error) {
	if log == nil {
		log = logger.Nop()
	}
	opts := Options{Config: cfg, Logger: log}
	cleanup := func() {}

	var sb *sbplatform.Client
	if cfg.SupabaseConfigured() {
		c, err := sbplatform.NewClient(sbplatform.Config{
			URL:            cfg.Supabase.URL,
			AnonKey:        cfg.Supabase.AnonKey,
			ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
			Timeout:        cfg.HTTPTimeout(),
		})
		if err != nil {
			return Options{}, cleanup, err
		}
		sb = c

		gotrue := authsb.NewClient(sb)
		opts.Identity = gotrue
		if cfg.Supabase.JWTSecret != "" {
			v, err := authsb.NewJWTVerifier(cfg.Supabase.JWTSecret)
			if err != nil {
				return Options{}, cleanup, err
			}
			opts.AuthVerifier = v
		} else {
			opts.AuthVerifier = authsb.NewRemoteVerifier(gotrue)
		}

		bucket, err := objsb.NewBucket(sb, cfg.Supabase.Bucket)
		if err != nil {
			return Options{}, cleanup, err
		}
		opts.Objects = bucket
	} else {
		idp := authmem.NewIdentityProvider()
		opts.Identity = idp
		// En debug sin Supabase se usa el header X-Debug-User-ID.
		if !cfg.Debug {
			opts.AuthVerifier = idp
		}
		log.Warn("supabase not configured, using in-memory auth and object storage", nil)
	}

	switch cfg.Storage.Backend {
	case config.BackendSupabase:
		if sb == nil {
			return Options{}, cleanup, fmt.Errorf("router: supabase backend without client")
		}
		repos := storesb.NewRepos(sb)
		opts.Repositories = Repositories{
			Profiles:     repos.Profiles,
			Farms:        repos.Farms,
			Animals:      repos.Animals,
			Measurements: repos.Measurements,
		}
		opts.HealthCheck = sb.Ping

	case config.BackendPostgres:
		db, err := pg.Open(cfg.Storage.DSN)
		if err != nil {
			return Options{}, cleanup, fmt.Errorf("router: open postgres: %w", err)
		}
		cleanup = func() { _ = db.Close() }
		opts.Repositories = Repositories{
			Profiles:     pg.NewProfilesRepo(db),
			Farms:        pg.NewFarmsRepo(db),
			Animals:      pg.NewAnimalsRepo(db),
			Measurements: pg.NewMeasurementsRepo(db),
		}
		opts.HealthCheck = pg.Ping(db)

	case config.BackendMemory:
		log.Warn("using in-memory storage; data is lost on restart", nil)
	}

	log.Info("storage backend selected", map[string]any{
		"backend":  cfg.Storage.Backend,
		"supabase": sb != nil,
		"dev_auth": opts.AuthVerifier == nil,
	})
	return opts, cleanup, nil
}
