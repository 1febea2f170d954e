package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// AuditSink persists tool call entries beyond the in-memory ring.
type AuditSink interface {
	RecordCall(ctx context.Context, entry contractx.ToolCallLogEntry) error
}

type AuditConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"3s"`
}

func (c AuditConfig) Enabled() bool {
	return strings.TrimSpace(c.DSN) != ""
}

type toolCallAuditRow struct {
	bun.BaseModel `bun:"table:tool_call_audit,alias:tca"`

	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name,notnull"`
	ArgumentsJSON string    `bun:"arguments_json"`
	DurationMS    int64     `bun:"duration_ms"`
	Succeeded     bool      `bun:"succeeded"`
	ErrorMessage  string    `bun:"error_message"`
	CalledAt      time.Time `bun:"called_at,notnull"`
}

func newToolCallAuditRow(entry contractx.ToolCallLogEntry) *toolCallAuditRow {
	return &toolCallAuditRow{
		Name:          entry.Name,
		ArgumentsJSON: entry.ArgumentsJSON,
		DurationMS:    entry.Duration.Milliseconds(),
		Succeeded:     entry.Succeeded,
		ErrorMessage:  entry.ErrorMessage,
		CalledAt:      entry.Timestamp.UTC(),
	}
}

// BunAuditSink writes entries to Postgres through bun.
type BunAuditSink struct {
	db      *bun.DB
	timeout time.Duration
}

func NewBunAuditSink(ctx context.Context, cfg AuditConfig) (*BunAuditSink, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("audit dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if _, err := db.NewCreateTable().
		Model((*toolCallAuditRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tool_call_audit table: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &BunAuditSink{db: db, timeout: timeout}, nil
}

func (s *BunAuditSink) RecordCall(ctx context.Context, entry contractx.ToolCallLogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.NewInsert().Model(newToolCallAuditRow(entry)).Exec(ctx); err != nil {
		return fmt.Errorf("insert tool call audit: %w", err)
	}
	return nil
}

func (s *BunAuditSink) Close() error {
	return s.db.Close()
}
