package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/openadsim/openadsim/internal/models"
)

// Postgres wraps a postgres DB connection and implements models.Store.
type Postgres struct {
	DB *sql.DB
}

// schemaSQL sets up the necessary tables if they don't exist. The unique index
// on actions is what enforces at most one impression and one click per
// (client, campaign) pair; the billing writes rely on it surfacing 23505.
const schemaSQL = `CREATE TABLE IF NOT EXISTS clients (
    id UUID PRIMARY KEY,
    login TEXT NOT NULL UNIQUE,
    age INT NOT NULL,
    location TEXT NOT NULL,
    gender TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS advertisers (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS campaigns (
    id UUID PRIMARY KEY,
    advertiser_id UUID NOT NULL REFERENCES advertisers(id) ON DELETE CASCADE,
    impressions_limit INT NOT NULL,
    clicks_limit INT NOT NULL,
    cost_per_impression DOUBLE PRECISION NOT NULL,
    cost_per_click DOUBLE PRECISION NOT NULL,
    ad_title TEXT NOT NULL,
    ad_text TEXT NOT NULL,
    start_date INT NOT NULL,
    end_date INT NOT NULL,
    targeting JSONB NOT NULL DEFAULT '{}',
    current_impressions INT NOT NULL DEFAULT 0,
    current_clicks INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS ml_scores (
    client_id UUID NOT NULL REFERENCES clients(id),
    advertiser_id UUID NOT NULL REFERENCES advertisers(id),
    score INT NOT NULL,
    PRIMARY KEY (client_id, advertiser_id)
);

CREATE TABLE IF NOT EXISTS actions (
    id UUID PRIMARY KEY,
    client_id UUID NOT NULL REFERENCES clients(id),
    campaign_id UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
    action TEXT NOT NULL,
    cost DOUBLE PRECISION NOT NULL,
    day INT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_actions_unique ON actions (client_id, campaign_id, action);
CREATE INDEX IF NOT EXISTS idx_actions_client_id ON actions (client_id);
CREATE INDEX IF NOT EXISTS idx_actions_campaign_id ON actions (campaign_id);
CREATE INDEX IF NOT EXISTS idx_campaigns_advertiser_id ON campaigns (advertiser_id);
CREATE INDEX IF NOT EXISTS idx_campaigns_dates ON campaigns (start_date, end_date);
`

const campaignColumns = `id, advertiser_id, impressions_limit, clicks_limit, cost_per_impression, cost_per_click, ad_title, ad_text, start_date, end_date, targeting, current_impressions, current_clicks`

// InitPostgres connects to Postgres with connection pooling configuration.
func InitPostgres(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (*Postgres, error) {
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(
			attribute.String("db.system", "postgresql"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	p := &Postgres{DB: db}
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	zap.L().Info("Connected to Postgres",
		zap.Int("max_open_conns", maxOpenConns),
		zap.Int("max_idle_conns", maxIdleConns),
		zap.Duration("conn_max_lifetime", connMaxLifetime))
	return p, nil
}

// Close terminates the Postgres connection.
func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		if err := p.DB.Close(); err != nil {
			zap.L().Error("postgres close", zap.Error(err))
		}
	}
}

func (p *Postgres) ensureSchema() error {
	if _, err := p.DB.ExecContext(context.Background(), schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// UpsertClients writes the batch inside one transaction so it is
// all-or-nothing. In-batch duplicates are rejected up front; a login already
// owned by a different client surfaces as a unique violation and fails the
// batch too.
func (p *Postgres) UpsertClients(ctx context.Context, clients []models.Client) error {
	seenIDs := make(map[uuid.UUID]struct{}, len(clients))
	seenLogins := make(map[string]uuid.UUID, len(clients))
	for _, c := range clients {
		if _, ok := seenIDs[c.ID]; ok {
			return fmt.Errorf("duplicate client id %s in batch: %w", c.ID, models.ErrValidation)
		}
		seenIDs[c.ID] = struct{}{}
		if owner, ok := seenLogins[c.Login]; ok && owner != c.ID {
			return fmt.Errorf("duplicate login %q in batch: %w", c.Login, models.ErrValidation)
		}
		seenLogins[c.Login] = c.ID
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range clients {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO clients (id, login, age, location, gender) VALUES ($1,$2,$3,$4,$5)
			 ON CONFLICT (id) DO UPDATE SET login=$2, age=$3, location=$4, gender=$5`,
			c.ID, c.Login, c.Age, c.Location, c.Gender)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("login %q already taken: %w", c.Login, models.ErrValidation)
			}
			return fmt.Errorf("upsert client %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clients: %w", err)
	}
	return nil
}

// GetClient returns one client by ID.
func (p *Postgres) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var c models.Client
	err := p.DB.QueryRowContext(ctx,
		`SELECT id, login, age, location, gender FROM clients WHERE id=$1`, id).
		Scan(&c.ID, &c.Login, &c.Age, &c.Location, &c.Gender)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("client %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query client: %w", err)
	}
	return &c, nil
}

// UpsertAdvertisers writes the batch inside one transaction.
func (p *Postgres) UpsertAdvertisers(ctx context.Context, advertisers []models.Advertiser) error {
	seen := make(map[uuid.UUID]struct{}, len(advertisers))
	for _, a := range advertisers {
		if _, ok := seen[a.ID]; ok {
			return fmt.Errorf("duplicate advertiser id %s in batch: %w", a.ID, models.ErrValidation)
		}
		seen[a.ID] = struct{}{}
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range advertisers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO advertisers (id, name) VALUES ($1,$2) ON CONFLICT (id) DO UPDATE SET name=$2`,
			a.ID, a.Name); err != nil {
			return fmt.Errorf("upsert advertiser %s: %w", a.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit advertisers: %w", err)
	}
	return nil
}

// GetAdvertiser returns one advertiser by ID.
func (p *Postgres) GetAdvertiser(ctx context.Context, id uuid.UUID) (*models.Advertiser, error) {
	var a models.Advertiser
	err := p.DB.QueryRowContext(ctx,
		`SELECT id, name FROM advertisers WHERE id=$1`, id).Scan(&a.ID, &a.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("advertiser %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query advertiser: %w", err)
	}
	return &a, nil
}

// UpsertMLScore writes one relevance score keyed by (client, advertiser).
func (p *Postgres) UpsertMLScore(ctx context.Context, score models.MLScore) error {
	_, err := p.DB.ExecContext(ctx,
		`INSERT INTO ml_scores (client_id, advertiser_id, score) VALUES ($1,$2,$3)
		 ON CONFLICT (client_id, advertiser_id) DO UPDATE SET score=$3`,
		score.ClientID, score.AdvertiserID, score.Score)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("score references unknown client or advertiser: %w", models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("upsert ml score: %w", err)
	}
	return nil
}

// MLScoresForClient returns the client's scores keyed by advertiser ID.
func (p *Postgres) MLScoresForClient(ctx context.Context, clientID uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := p.DB.QueryContext(ctx,
		`SELECT advertiser_id, score FROM ml_scores WHERE client_id=$1`, clientID)
	if err != nil {
		return nil, fmt.Errorf("query ml scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	scores := make(map[uuid.UUID]int)
	for rows.Next() {
		var advertiserID uuid.UUID
		var score int
		if err := rows.Scan(&advertiserID, &score); err != nil {
			return nil, fmt.Errorf("scan ml score: %w", err)
		}
		scores[advertiserID] = score
	}
	return scores, rows.Err()
}

// CreateCampaign inserts a new campaign with zeroed counters.
func (p *Postgres) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	targeting, err := json.Marshal(c.Targeting)
	if err != nil {
		return fmt.Errorf("marshal targeting: %w", err)
	}
	_, err = p.DB.ExecContext(ctx,
		`INSERT INTO campaigns (id, advertiser_id, impressions_limit, clicks_limit, cost_per_impression, cost_per_click, ad_title, ad_text, start_date, end_date, targeting)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		c.ID, c.AdvertiserID, c.ImpressionsLimit, c.ClicksLimit, c.CostPerImpression, c.CostPerClick,
		c.AdTitle, c.AdText, c.StartDate, c.EndDate, targeting)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("advertiser %s: %w", c.AdvertiserID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func scanCampaign(row interface{ Scan(...any) error }) (*models.Campaign, error) {
	var c models.Campaign
	var targeting []byte
	if err := row.Scan(&c.ID, &c.AdvertiserID, &c.ImpressionsLimit, &c.ClicksLimit,
		&c.CostPerImpression, &c.CostPerClick, &c.AdTitle, &c.AdText,
		&c.StartDate, &c.EndDate, &targeting, &c.CurrentImpressions, &c.CurrentClicks); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(targeting, &c.Targeting); err != nil {
		return nil, fmt.Errorf("unmarshal targeting: %w", err)
	}
	return &c, nil
}

// GetCampaign returns one campaign scoped to its advertiser.
func (p *Postgres) GetCampaign(ctx context.Context, advertiserID, campaignID uuid.UUID) (*models.Campaign, error) {
	row := p.DB.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id=$1 AND advertiser_id=$2`,
		campaignID, advertiserID)
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query campaign: %w", err)
	}
	return c, nil
}

// GetCampaignByID returns one campaign by ID alone.
func (p *Postgres) GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error) {
	row := p.DB.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id=$1`, campaignID)
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query campaign: %w", err)
	}
	return c, nil
}

func (p *Postgres) queryCampaigns(ctx context.Context, query string, args ...any) ([]models.Campaign, error) {
	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var campaigns []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

// ListCampaigns returns the advertiser's campaigns ordered by start day,
// optionally windowed. limit<=0 means no limit.
func (p *Postgres) ListCampaigns(ctx context.Context, advertiserID uuid.UUID, limit, offset int) ([]models.Campaign, error) {
	if _, err := p.GetAdvertiser(ctx, advertiserID); err != nil {
		return nil, err
	}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE advertiser_id=$1 ORDER BY start_date, id`
	args := []any{advertiserID}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}
	return p.queryCampaigns(ctx, query, args...)
}

// UpdateCampaign rewrites the campaign's mutable fields. Counters are owned by
// the billing writes and left untouched.
func (p *Postgres) UpdateCampaign(ctx context.Context, c models.Campaign) error {
	targeting, err := json.Marshal(c.Targeting)
	if err != nil {
		return fmt.Errorf("marshal targeting: %w", err)
	}
	res, err := p.DB.ExecContext(ctx,
		`UPDATE campaigns SET impressions_limit=$3, clicks_limit=$4, cost_per_impression=$5, cost_per_click=$6,
		 ad_title=$7, ad_text=$8, start_date=$9, end_date=$10, targeting=$11
		 WHERE id=$1 AND advertiser_id=$2`,
		c.ID, c.AdvertiserID, c.ImpressionsLimit, c.ClicksLimit, c.CostPerImpression, c.CostPerClick,
		c.AdTitle, c.AdText, c.StartDate, c.EndDate, targeting)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("campaign %s: %w", c.ID, models.ErrNotFound)
	}
	return nil
}

// DeleteCampaign removes the campaign; its actions go with it via the cascade.
func (p *Postgres) DeleteCampaign(ctx context.Context, advertiserID, campaignID uuid.UUID) error {
	res, err := p.DB.ExecContext(ctx,
		`DELETE FROM campaigns WHERE id=$1 AND advertiser_id=$2`, campaignID, advertiserID)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("campaign %s: %w", campaignID, models.ErrNotFound)
	}
	return nil
}

// AllCampaigns returns every campaign.
func (p *Postgres) AllCampaigns(ctx context.Context) ([]models.Campaign, error) {
	return p.queryCampaigns(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY start_date, id`)
}

// CampaignsByAdvertiser returns every campaign of one advertiser.
func (p *Postgres) CampaignsByAdvertiser(ctx context.Context, advertiserID uuid.UUID) ([]models.Campaign, error) {
	if _, err := p.GetAdvertiser(ctx, advertiserID); err != nil {
		return nil, err
	}
	return p.queryCampaigns(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE advertiser_id=$1 ORDER BY start_date, id`, advertiserID)
}

func (p *Postgres) queryActions(ctx context.Context, query string, args ...any) ([]models.Action, error) {
	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var actions []models.Action
	for rows.Next() {
		var a models.Action
		if err := rows.Scan(&a.ID, &a.ClientID, &a.CampaignID, &a.Kind, &a.Cost, &a.Day); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// ActionsForClient returns the client's ledger rows.
func (p *Postgres) ActionsForClient(ctx context.Context, clientID uuid.UUID) ([]models.Action, error) {
	return p.queryActions(ctx,
		`SELECT id, client_id, campaign_id, action, cost, day FROM actions WHERE client_id=$1 ORDER BY day, id`, clientID)
}

// ActionsForCampaign returns the campaign's ledger rows.
func (p *Postgres) ActionsForCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Action, error) {
	return p.queryActions(ctx,
		`SELECT id, client_id, campaign_id, action, cost, day FROM actions WHERE campaign_id=$1 ORDER BY day, id`, campaignID)
}

// HasAction reports whether the ledger already holds a row for the triple.
func (p *Postgres) HasAction(ctx context.Context, clientID, campaignID uuid.UUID, kind string) (bool, error) {
	var exists bool
	err := p.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM actions WHERE client_id=$1 AND campaign_id=$2 AND action=$3)`,
		clientID, campaignID, kind).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query action exists: %w", err)
	}
	return exists, nil
}

// RecordImpression bills one impression atomically.
func (p *Postgres) RecordImpression(ctx context.Context, campaignID, clientID uuid.UUID, day int) (*models.Action, error) {
	return p.recordAction(ctx, campaignID, clientID, day, models.ActionImpression)
}

// RecordClick bills one click atomically.
func (p *Postgres) RecordClick(ctx context.Context, campaignID, clientID uuid.UUID, day int) (*models.Action, error) {
	return p.recordAction(ctx, campaignID, clientID, day, models.ActionClick)
}

// recordAction runs the billing critical section: lock the campaign row,
// re-check the cap, bump the counter and append the ledger row in one
// transaction. The unique index turns a concurrent duplicate into 23505,
// which maps to ErrDuplicateAction.
func (p *Postgres) recordAction(ctx context.Context, campaignID, clientID uuid.UUID, day int, kind string) (*models.Action, error) {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var impLimit, clickLimit, curImp, curClicks int
	var cpi, cpc float64
	err = tx.QueryRowContext(ctx,
		`SELECT impressions_limit, clicks_limit, cost_per_impression, cost_per_click, current_impressions, current_clicks
		 FROM campaigns WHERE id=$1 FOR UPDATE`, campaignID).
		Scan(&impLimit, &clickLimit, &cpi, &cpc, &curImp, &curClicks)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock campaign: %w", err)
	}

	// The duplicate check precedes the cap check so a repeated write surfaces
	// as already-billed even when the cap has since been exhausted.
	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM actions WHERE client_id=$1 AND campaign_id=$2 AND action=$3)`,
		clientID, campaignID, kind).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check existing action: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%s already recorded for client %s on %s: %w", kind, clientID, campaignID, models.ErrDuplicateAction)
	}

	var cost float64
	var counterSQL string
	switch kind {
	case models.ActionImpression:
		if curImp >= impLimit {
			return nil, fmt.Errorf("impressions cap reached for %s: %w", campaignID, models.ErrNoInventory)
		}
		cost = cpi
		counterSQL = `UPDATE campaigns SET current_impressions = current_impressions + 1 WHERE id=$1`
	case models.ActionClick:
		if curClicks >= clickLimit {
			return nil, fmt.Errorf("clicks cap reached for %s: %w", campaignID, models.ErrNoInventory)
		}
		cost = cpc
		counterSQL = `UPDATE campaigns SET current_clicks = current_clicks + 1 WHERE id=$1`
	default:
		return nil, fmt.Errorf("unknown action kind %q: %w", kind, models.ErrValidation)
	}

	action := models.Action{
		ID:         uuid.New(),
		ClientID:   clientID,
		CampaignID: campaignID,
		Kind:       kind,
		Cost:       cost,
		Day:        day,
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO actions (id, client_id, campaign_id, action, cost, day) VALUES ($1,$2,$3,$4,$5,$6)`,
		action.ID, action.ClientID, action.CampaignID, action.Kind, action.Cost, action.Day); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s already recorded for client %s on %s: %w", kind, clientID, campaignID, models.ErrDuplicateAction)
		}
		return nil, fmt.Errorf("insert action: %w", err)
	}
	if _, err := tx.ExecContext(ctx, counterSQL, campaignID); err != nil {
		return nil, fmt.Errorf("bump counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit action: %w", err)
	}
	return &action, nil
}
