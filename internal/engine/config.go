package engine

import (
	"net/http"
	"path/filepath"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	DataDir              string // SQLite file and exports live here
	DatabaseURL          string // Postgres tracker when set, SQLite otherwise
	RedisURL             string
	ATSRulesPath         string // empty = embedded rules
	VocabularyPath       string // empty = embedded vocabulary
	SalaryPath           string // empty = embedded salary reference
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	FetchTimeout         time.Duration
	FetchRPS             float64
	MaxContentChars      int
	HTTPClient           *http.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages.
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.MaxContentChars <= 0 {
		c.MaxContentChars = 20000
	}
	cfg = c
	Cfg = &cfg
	initFetchLimiter(c.FetchRPS)
}

// SQLitePath is the tracker database file inside DataDir.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "tracker.db")
}

// ExportPath resolves an export file name inside DataDir/exports.
// Absolute names are returned unchanged.
func (c *Config) ExportPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, "exports", name)
}
