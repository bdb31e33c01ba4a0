// Package pgload generates a PostgreSQL workload so a wire sensor in
// front of the database sees realistic traffic: simple and extended
// queries, multi-statement batches, and deliberate errors.
package pgload

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	_ "github.com/lib/pq"
	"gopkg.in/yaml.v3"
)

// RunConfig describes the workload parsed from YAML.
type RunConfig struct {
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	SSLMode  string `yaml:"sslmode"`

	Seed        int64 `yaml:"seed"`
	Concurrency int   `yaml:"concurrency"`
	TotalOps    int   `yaml:"totalOps"`

	Mix struct {
		Select float64 `yaml:"select"`
		Insert float64 `yaml:"insert"`
		Update float64 `yaml:"update"`
		Error  float64 `yaml:"error"`
	} `yaml:"mix"`
}

func readRunConfig(path string) (RunConfig, error) {
	var cfg RunConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c RunConfig) dsn() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslmode)
}

// sqlEscape escapes single quotes for inline SQL generation.
func sqlEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// op is one generated statement. Faulty ops are expected to fail and
// exist to produce ErrorResponse traffic.
type op struct {
	query  string
	args   []any
	faulty bool
}

func nextOp(cfg RunConfig, rng *rand.Rand) op {
	roll := rng.Float64()
	switch {
	case roll < cfg.Mix.Select:
		return op{
			query: "SELECT id, name, email FROM accounts WHERE id = $1",
			args:  []any{rng.Intn(10000) + 1},
		}
	case roll < cfg.Mix.Select+cfg.Mix.Insert:
		return op{
			query: fmt.Sprintf(
				"INSERT INTO accounts (name, email) VALUES ('%s', '%s')",
				sqlEscape(gofakeit.Name()), sqlEscape(gofakeit.Email())),
		}
	case roll < cfg.Mix.Select+cfg.Mix.Insert+cfg.Mix.Update:
		return op{
			query: "UPDATE accounts SET last_seen = now() WHERE id = $1",
			args:  []any{rng.Intn(10000) + 1},
		}
	default:
		// Syntax and relation errors exercise the error path end to end.
		return op{query: "SELEC * FORM nowhere", faulty: true}
	}
}

func worker(ctx context.Context, id int, db *sql.DB, cfg RunConfig, ops int, seed int64, wg *sync.WaitGroup) {
	defer wg.Done()
	rng := rand.New(rand.NewSource(seed))

	for i := 0; i < ops; i++ {
		if ctx.Err() != nil {
			return
		}
		o := nextOp(cfg, rng)
		_, err := db.ExecContext(ctx, o.query, o.args...)
		if err != nil && !o.faulty {
			fmt.Fprintf(os.Stderr, "worker %d: op failed: %v\n", id, err)
		}
	}
}

// ensureSchema creates the workload table when missing.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			last_seen TIMESTAMPTZ
		)`)
	return err
}

// Run executes the workload described by the YAML config at configPath.
func Run(configPath string) error {
	cfg, err := readRunConfig(configPath)
	if err != nil {
		return fmt.Errorf("load run config: %w", err)
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.TotalOps <= 0 {
		cfg.TotalOps = 1000
	}
	if cfg.Seed != 0 {
		gofakeit.Seed(cfg.Seed)
	}

	db, err := sql.Open("postgres", cfg.dsn())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Concurrency)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	perWorker := cfg.TotalOps / cfg.Concurrency
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go worker(ctx, i, db, cfg, perWorker, cfg.Seed+int64(i), &wg)
	}
	wg.Wait()

	fmt.Printf("completed %d ops across %d workers in %s\n",
		perWorker*cfg.Concurrency, cfg.Concurrency, time.Since(start).Round(time.Millisecond))
	return nil
}
