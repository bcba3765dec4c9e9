package main

import (
	"context"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"

	httpadapter "rialto/internal/adapter/http"
	ledgermem "rialto/internal/adapter/ledger/memory"
	"rialto/internal/adapter/locations"
	metricsinmem "rialto/internal/adapter/metrics/inmemory"
	notifymem "rialto/internal/adapter/notify/memory"
	pathruntime "rialto/internal/adapter/path/runtime"
	gormrepo "rialto/internal/adapter/repo/gorm"
	memrepo "rialto/internal/adapter/repo/memory"
	"rialto/internal/app/acquire"
	"rialto/internal/app/activity"
	"rialto/internal/app/decision"
	"rialto/internal/app/ports"
	"rialto/internal/app/stratagem"
	"rialto/internal/app/tick"
	"rialto/internal/domain/sim"
)

type repoSet struct {
	citizens   ports.CitizenRepository
	activities ports.ActivityRepository
	contracts  ports.ContractRepository
	stacks     ports.StackRepository
	buildings  ports.BuildingRepository
	stratagems ports.StratagemRepository
	tx         ports.TxManager
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogLevelFromEnv("RIALTO_LOG_LEVEL"),
	}))

	tuning := mustLoadTuning(logger)
	repos := mustBuildRepos(logger)

	pathCfg := pathruntime.DefaultConfig()
	pathCfg.CacheTTL = durationEnv("RIALTO_ROUTE_CACHE_TTL", pathCfg.CacheTTL)
	pathProvider := pathruntime.NewProvider(pathCfg)

	cooldowns := acquire.NewFetchCooldowns(tuning.FetchCooldown)
	store := activity.Store{
		Tx:         repos.tx,
		Activities: repos.activities,
		Now:        time.Now,
		OnFailed: func(_ context.Context, act sim.Activity) {
			cooldowns.RecordActivityFailure(act, time.Now())
		},
	}
	recorder := metricsinmem.NewRecorder()
	resolver := &acquire.Resolver{
		Contracts: repos.contracts,
		Stacks:    repos.stacks,
		Buildings: repos.buildings,
		Path:      pathProvider,
		Cooldowns: cooldowns,
		Metrics:   recorder,
		Tuning:    tuning,
		Log:       logger,
		Now:       time.Now,
	}
	deps := &decision.Deps{
		Citizens:  repos.citizens,
		Store:     store,
		Contracts: repos.contracts,
		Stacks:    repos.stacks,
		Buildings: repos.buildings,
		Path:      pathProvider,
		Locations: locations.NewResolver(repos.buildings, spawnFromEnv()),
		Ledger:    ledgermem.NewLedger(),
		Notify:    notifymem.NewNotifier(intEnv("RIALTO_NOTICE_BUFFER", 256), logger),
		Acquire:   resolver,
		Metrics:   recorder,
		Tuning:    tuning,
		Log:       logger,
		Now:       time.Now,
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	orchestrator := decision.NewOrchestrator(deps)

	h := httpadapter.Handler{
		Orchestrator: orchestrator,
		Ticker: &tick.Runner{
			Citizens:     repos.citizens,
			Orchestrator: orchestrator,
			Parallelism:  intEnv("RIALTO_TICK_PARALLELISM", tuning.TickParallelism),
			Timeout:      tuning.DecisionTimeout,
			Log:          logger,
		},
		Activities: store,
		Stratagems: &stratagem.Scheduler{
			Citizens:   repos.citizens,
			Stratagems: repos.stratagems,
			Contracts:  repos.contracts,
			Buildings:  repos.buildings,
			Store:      store,
			Acquire:    resolver,
			Path:       pathProvider,
			Tuning:     tuning,
			Log:        logger,
			Now:        time.Now,
		},
		KPI: recorder,
	}

	addr := strings.TrimSpace(os.Getenv("RIALTO_LISTEN_ADDR"))
	if addr == "" {
		addr = ":8080"
	}
	s := server.Default(server.WithHostPorts(addr))
	h.RegisterRoutes(s)

	logger.Info("engine listening", "addr", addr)
	s.Spin()
}

func mustLoadTuning(logger *slog.Logger) sim.Tuning {
	path := strings.TrimSpace(os.Getenv("RIALTO_TUNING_FILE"))
	if path == "" {
		return sim.DefaultTuning()
	}
	tuning, err := sim.LoadTuning(path)
	if err != nil {
		log.Fatalf("load tuning %s: %v", path, err)
	}
	logger.Info("tuning loaded", "path", path)
	return tuning
}

func mustBuildRepos(logger *slog.Logger) repoSet {
	dsn := strings.TrimSpace(os.Getenv("RIALTO_DB_DSN"))
	if dsn == "" {
		logger.Warn("RIALTO_DB_DSN not set, using in-memory store")
		store := memrepo.NewStore()
		return repoSet{
			citizens:   memrepo.NewCitizenRepo(store),
			activities: memrepo.NewActivityRepo(store),
			contracts:  memrepo.NewContractRepo(store),
			stacks:     memrepo.NewStackRepo(store),
			buildings:  memrepo.NewBuildingRepo(store),
			stratagems: memrepo.NewStratagemRepo(store),
			tx:         memrepo.NewTxManager(),
		}
	}

	db, err := gormrepo.OpenPostgres(dsn)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	if err := gormrepo.AutoMigrate(db); err != nil {
		log.Fatalf("migrate schema: %v", err)
	}
	return repoSet{
		citizens:   gormrepo.NewCitizenRepo(db),
		activities: gormrepo.NewActivityRepo(db),
		contracts:  gormrepo.NewContractRepo(db),
		stacks:     gormrepo.NewStackRepo(db),
		buildings:  gormrepo.NewBuildingRepo(db),
		stratagems: gormrepo.NewStratagemRepo(db),
		tx:         gormrepo.NewTxManager(db),
	}
}

func spawnFromEnv() sim.Position {
	return sim.Position{
		Lat: floatEnv("RIALTO_SPAWN_LAT", 45.4371),
		Lng: floatEnv("RIALTO_SPAWN_LNG", 12.3326),
	}
}

func slogLevelFromEnv(key string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func intEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func floatEnv(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
