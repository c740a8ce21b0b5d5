package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hostel_hub/internal/adapters/observability"
	redisad "hostel_hub/internal/adapters/redis"
	"hostel_hub/internal/app"
	"hostel_hub/internal/domain"
	"hostel_hub/internal/shared"
	mysqlrepo "hostel_hub/internal/storage/mysql"
)

func main() {
	file := flag.String("file", "", "path to a JSON array of listing records")
	ownerEmail := flag.String("owner", "", "email of the business account that owns the listings")
	flag.Parse()

	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	if *file == "" || *ownerEmail == "" {
		log.Fatal().Msg("usage: importer -file listings.json -owner owner@example.com")
	}
	log.Info().
		Str("file", *file).
		Str("owner", *ownerEmail).
		Int("workers", cfg.ImportWorkers).
		Msg("importer starting")

	records, err := readFeed(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read feed")
	}

	db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()

	owner, err := repo.GetUserByEmail(ctx, *ownerEmail)
	if err != nil {
		log.Fatal().Err(err).Str("owner", *ownerEmail).Msg("owner lookup failed")
	}
	if owner.Role != domain.RoleBusiness {
		log.Fatal().Str("owner", owner.Email).Str("role", string(owner.Role)).Msg("listings can only be imported for business accounts")
	}
	actor := domain.Identity{UserID: owner.ID, Email: owner.Email, Role: owner.Role}

	hostels := app.NewHostelService(repo, repo, cache, nil, cfg.CacheTTL)
	imp := app.NewImportService(hostels, cfg.ImportCurrency)

	workers := cfg.ImportWorkers
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg     sync.WaitGroup
		ok     atomic.Int64
		failed atomic.Int64
	)

	for i, rec := range records {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(n int, rec map[string]any) {
			defer wg.Done()
			defer sem.Release(1)

			h, err := imp.ImportListing(ctx, actor, rec)
			if err != nil {
				failed.Add(1)
				ev := log.Warn().Int("record", n).Err(err)
				var ve *domain.ValidationError
				if errors.As(err, &ve) {
					ev = ev.Interface("fields", ve.Map())
				}
				ev.Msg("import failed")
				return
			}
			ok.Add(1)
			log.Info().Int("record", n).Str("hostel_id", h.ID).Str("name", h.Name).Msg("import ok")
		}(i, rec)
	}

	wg.Wait()
	log.Info().Int64("imported", ok.Load()).Int64("failed", failed.Load()).Msg("import completed")
	if failed.Load() > 0 {
		// os.Exit skips deferred calls
		_ = cache.Close()
		_ = db.Close()
		os.Exit(1)
	}
}

// readFeed loads a JSON array of loosely shaped listing objects.
func readFeed(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []map[string]any
	if err := json.NewDecoder(f).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
