// Package sqlite opens the embedded, cgo-free SQLite database that holds the
// index, the queries and the relevance judgments by default.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/glebarez/sqlite"
)

// DriverName is the database/sql driver registered by glebarez/sqlite.
const DriverName = "sqlite"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

type Client struct {
	DB *sql.DB
}

// Open opens the database file at path, creating it if needed. An in-memory
// database lives as long as its single connection, so the pool is pinned to
// one connection.
func Open(ctx context.Context, path string) (*Client, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite database %s: %w", path, err)
	}
	return &Client{DB: db}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}
