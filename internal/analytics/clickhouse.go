package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// Service is the write-side interface for the analytics event log. Events are
// advisory: the action ledger in the primary store stays the source of truth
// for billing, so callers log sink failures and move on.
type Service interface {
	// RecordEvent appends a serving event (impression, click, ad_request,
	// no_ad) with the campaign context and the cost charged, if any.
	RecordEvent(ctx context.Context, eventType string, campaignID, advertiserID, clientID uuid.UUID, day int, cost float64) error
}

// ErrUnavailable is returned when the analytics DB is not configured.
var ErrUnavailable = fmt.Errorf("analytics unavailable")

// ClickHouse wraps a ClickHouse connection for event inserts.
type ClickHouse struct {
	DB *sql.DB
}

// InitClickHouse connects to ClickHouse and ensures the events table exists.
func InitClickHouse(dsn string, maxOpenConns int) (*ClickHouse, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}

	create := `CREATE TABLE IF NOT EXISTS events (
       timestamp     DateTime,
       event_type    String,
       campaign_id   UUID,
       advertiser_id UUID,
       client_id     UUID,
       day           Int32,
       cost          Float64
   ) ENGINE=MergeTree() ORDER BY (event_type, timestamp)`
	if _, err := db.ExecContext(context.Background(), create); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}

	zap.L().Info("Connected to ClickHouse")
	return &ClickHouse{DB: db}, nil
}

// RecordEvent inserts a single event row.
func (c *ClickHouse) RecordEvent(ctx context.Context, eventType string, campaignID, advertiserID, clientID uuid.UUID, day int, cost float64) error {
	if c == nil || c.DB == nil {
		return ErrUnavailable
	}
	_, err := c.DB.ExecContext(ctx,
		`INSERT INTO events (timestamp, event_type, campaign_id, advertiser_id, client_id, day, cost) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), eventType, campaignID, advertiserID, clientID, int32(day), cost)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Close shuts down the ClickHouse connection.
func (c *ClickHouse) Close() {
	if c != nil && c.DB != nil {
		if err := c.DB.Close(); err != nil {
			zap.L().Error("clickhouse close", zap.Error(err))
		}
	}
}
