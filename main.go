// go_apply: job application assistant MCP server.
//
// Analyses job descriptions, matches and tailors résumés, scores ATS
// compatibility, drafts cover letters and tracks applications in SQLite or
// Postgres. Runs as an HTTP MCP server (default) or as an offline CLI.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_apply/internal/engine"
	"github.com/anatolykoptev/go_apply/internal/engine/rules"
	"github.com/anatolykoptev/go_apply/internal/engine/tracker"
	"github.com/anatolykoptev/go_apply/internal/jobserver"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn(".env load failed", slog.Any("error", err))
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	port := env.Str("MCP_PORT", "8893")
	d, closeStore, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer closeStore()

	slog.Info("starting go_apply",
		slog.String("port", port),
		slog.String("data_dir", engine.Cfg.DataDir),
		slog.Bool("tracker", d.Store != nil),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_apply",
		Version: version,
	}, nil)

	n := jobserver.RegisterTools(server, d)
	slog.Info("tools registered", slog.Int("count", n))

	return mcpserver.Run(server, mcpserver.Config{
		Name:         "go_apply",
		Version:      version,
		Port:         port,
		WriteTimeout: 120 * time.Second,
		Metrics:      engine.FormatMetrics,
	})
}

// setup initialises the engine from the environment and builds the tool
// dependencies. The tracker is opened when withStore is set; a failure to
// open it disables the tracker tools instead of stopping the server.
func setup(ctx context.Context, withStore bool) (*jobserver.Deps, func(), error) {
	initEngine()

	atsRules, vocab, err := loadRules()
	if err != nil {
		return nil, nil, err
	}

	var store *tracker.Store
	closeStore := func() {}
	if withStore {
		store, err = tracker.Open(ctx, engine.Cfg.DatabaseURL, engine.Cfg.SQLitePath())
		if err != nil {
			slog.Warn("tracker init failed, tracker tools disabled", slog.Any("error", err))
			store = nil
		} else {
			slog.Info("tracker initialized", slog.String("dialect", store.Dialect()))
			closeStore = func() {
				if err := store.Close(); err != nil {
					slog.Warn("tracker close failed", slog.Any("error", err))
				}
			}
		}
	}

	d, err := jobserver.NewDeps(atsRules, vocab, store)
	if err == nil {
		d.Salary, err = loadSalary()
	}
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return d, closeStore, nil
}

func initEngine() {
	c := engine.Config{
		DataDir:              env.Str("DATA_DIR", defaultDataDir()),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		RedisURL:             env.Str("REDIS_URL", ""),
		ATSRulesPath:         env.Str("ATS_RULES_PATH", ""),
		VocabularyPath:       env.Str("VOCABULARY_PATH", ""),
		SalaryPath:           env.Str("SALARY_PATH", ""),
		CacheTTL:             env.Duration("CACHE_TTL", 30*time.Minute),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 500),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 5*time.Minute),
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", 15*time.Second),
		FetchRPS:             env.Float("FETCH_RPS", 1),
		MaxContentChars:      env.Int("MAX_CONTENT_CHARS", 20000),
	}
	c.HTTPClient = &http.Client{
		Timeout: c.FetchTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     60 * time.Second,
		},
	}
	engine.Init(c)
	engine.InitCache(c.RedisURL, c.CacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}

// loadRules reads the override files when configured, else the embedded defaults.
func loadRules() (*rules.ATSRules, *rules.Vocabulary, error) {
	atsRules := rules.DefaultATSRules()
	if p := engine.Cfg.ATSRulesPath; p != "" {
		r, err := rules.LoadATSRules(p)
		if err != nil {
			return nil, nil, err
		}
		atsRules = r
		slog.Info("ats rules loaded", slog.String("path", p))
	}
	vocab := rules.DefaultVocabulary()
	if p := engine.Cfg.VocabularyPath; p != "" {
		v, err := rules.LoadVocabulary(p)
		if err != nil {
			return nil, nil, err
		}
		vocab = v
		slog.Info("vocabulary loaded", slog.String("path", p))
	}
	return atsRules, vocab, nil
}

// loadSalary reads the salary reference override when configured.
func loadSalary() (*rules.SalaryReference, error) {
	p := engine.Cfg.SalaryPath
	if p == "" {
		return rules.DefaultSalaryReference(), nil
	}
	ref, err := rules.LoadSalaryReference(p)
	if err != nil {
		return nil, err
	}
	slog.Info("salary reference loaded", slog.String("path", p))
	return ref, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".go_apply"
	}
	return filepath.Join(home, ".go_apply")
}
