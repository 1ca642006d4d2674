package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client runs the library's background queues on a SQLite file of its own.
// The queue database is always SQLite, even when the catalog is kept in
// Postgres or Redis.
type Client struct {
	queue   *backlite.Client
	db      *sql.DB
	workers int
	running atomic.Bool
}

// DBPath returns the queue database that belongs to the application
// database: data/librarian.db becomes data/librarian-tasks.db.
func DBPath(mainDBPath string) string {
	ext := filepath.Ext(mainDBPath)
	return strings.TrimSuffix(mainDBPath, ext) + "-tasks" + ext
}

func dsn(path string) string {
	return path + "?_journal=WAL&_timeout=5000&_busy_timeout=5000"
}

// NewClient opens the queue database next to mainDBPath, installs the
// backlite schema and registers queues. Queues cannot be added later.
func NewClient(mainDBPath string, cfg Config, queues ...backlite.Queue) (*Client, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	db, err := sql.Open("sqlite3", dsn(DBPath(mainDBPath)))
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	queue, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create task queue: %w", err)
	}
	if err := queue.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install task queue schema: %w", err)
	}

	for _, q := range queues {
		queue.Register(q)
	}

	return &Client{queue: queue, db: db, workers: cfg.Workers}, nil
}

// Start processes tasks until ctx is cancelled or Stop is called. Run it in
// its own goroutine. A second call is a no-op.
func (c *Client) Start(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	log.Printf("[TASKS] Queue started with %d workers", c.workers)
	c.queue.Start(ctx)
}

// Stop waits for running tasks until ctx expires. It reports whether every
// worker finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.running.CompareAndSwap(true, false) {
		return true
	}
	if !c.queue.Stop(ctx) {
		log.Printf("[TASKS] Queue stopped before all tasks finished")
		return false
	}
	log.Printf("[TASKS] Queue stopped")
	return true
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Enqueue stores task for the workers and returns its ID.
func (c *Client) Enqueue(task backlite.Task) (string, error) {
	ids, err := c.queue.Add(task).Save()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue %T: %w", task, err)
	}
	return ids[0], nil
}

// Status looks up a task enqueued earlier.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.queue.Status(ctx, taskID)
}

type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Printf("[TASKS] "+message, params...)
}

func (queueLogger) Error(message string, params ...any) {
	log.Printf("[TASKS ERROR] "+message, params...)
}
