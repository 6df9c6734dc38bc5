// Package analytics is the durable append-log of match outcomes and the
// windowed aggregates the pacing engine and reporting tools read back from
// it. ClickHouse backs the durable store; callers depending only on reads
// use the narrower pacing.StatsReader interface.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"github.com/patrickwarner/sponsorstream-match/internal/pacing"
)

// ErrUnavailable is returned by every method when the store was never
// configured with a live connection.
var ErrUnavailable = fmt.Errorf("analytics store unavailable")

// Analytics wraps a ClickHouse connection holding the match_events table.
type Analytics struct {
	DB *sql.DB
}

// InitClickHouse connects to ClickHouse and ensures match_events exists.
func InitClickHouse(dsn string) (*Analytics, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(25)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}

	const create = `CREATE TABLE IF NOT EXISTS match_events (
		timestamp     DateTime,
		request_id    String,
		placement     String,
		campaign_id   String,
		creative_id   String,
		score         Float64,
		pacing_weight Float64,
		cost          Float64,
		metadata      Map(String, String)
	) ENGINE=MergeTree() ORDER BY (campaign_id, timestamp)`
	if _, err := db.ExecContext(context.Background(), create); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}

	zap.L().Info("connected to ClickHouse analytics store")
	return &Analytics{DB: db}, nil
}

// Close terminates the underlying connection.
func (a *Analytics) Close() {
	if a != nil && a.DB != nil {
		if err := a.DB.Close(); err != nil {
			zap.L().Error("clickhouse close", zap.Error(err))
		}
	}
}

// RecordMatch appends one admitted-candidate event. A failure here is
// never swallowed: the caller's match request fails with it.
func (a *Analytics) RecordMatch(ctx context.Context, ts time.Time, requestID, placement, campaignID, creativeID string, score, pacingWeight, cost float64, metadata map[string]string) error {
	if a == nil || a.DB == nil {
		return ErrUnavailable
	}
	const stmt = `INSERT INTO match_events (timestamp, request_id, placement, campaign_id, creative_id, score, pacing_weight, cost, metadata) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := a.DB.ExecContext(ctx, stmt, ts, requestID, placement, campaignID, creativeID, score, pacingWeight, cost, metadata); err != nil {
		zap.L().Error("clickhouse insert match event failed", zap.Error(err), zap.String("campaign_id", campaignID))
		return fmt.Errorf("insert match event: %w", err)
	}
	return nil
}

// Stats aggregates impressions, spend, and averages for a campaign over an
// optional [since, until) window. A nil bound is unbounded in that
// direction.
func (a *Analytics) Stats(ctx context.Context, campaignID string, since, until *time.Time) (pacing.Stats, error) {
	if a == nil || a.DB == nil {
		return pacing.Stats{}, ErrUnavailable
	}
	query := `SELECT count(), sum(cost), avg(score), avg(pacing_weight) FROM match_events WHERE campaign_id = ?`
	args := []any{campaignID}
	if since != nil {
		query += ` AND timestamp >= ?`
		args = append(args, *since)
	}
	if until != nil {
		query += ` AND timestamp < ?`
		args = append(args, *until)
	}

	var impressions sql.NullInt64
	var spend, avgScore, avgWeight sql.NullFloat64
	row := a.DB.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&impressions, &spend, &avgScore, &avgWeight); err != nil {
		return pacing.Stats{}, fmt.Errorf("campaign stats: %w", err)
	}
	return pacing.Stats{
		Impressions:     impressions.Int64,
		Spend:           spend.Float64,
		AvgScore:        avgScore.Float64,
		AvgPacingWeight: avgWeight.Float64,
	}, nil
}

// RecentStats aggregates the trailing window ending now.
func (a *Analytics) RecentStats(ctx context.Context, campaignID string, window time.Duration) (pacing.Stats, error) {
	since := time.Now().UTC().Add(-window)
	return a.Stats(ctx, campaignID, &since, nil)
}

// CampaignAggregate is one row of a summary listing.
type CampaignAggregate struct {
	CampaignID string
	Stats      pacing.Stats
}

// Summary lists every campaign with at least one match event since the
// given bound, ordered by spend descending.
func (a *Analytics) Summary(ctx context.Context, since *time.Time) ([]CampaignAggregate, error) {
	if a == nil || a.DB == nil {
		return nil, ErrUnavailable
	}
	query := `SELECT campaign_id, count(), sum(cost), avg(score), avg(pacing_weight) FROM match_events`
	var args []any
	if since != nil {
		query += ` WHERE timestamp >= ?`
		args = append(args, *since)
	}
	query += ` GROUP BY campaign_id ORDER BY sum(cost) DESC`

	rows, err := a.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summary query: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("rows close", zap.Error(err))
		}
	}()

	var out []CampaignAggregate
	for rows.Next() {
		var agg CampaignAggregate
		if err := rows.Scan(&agg.CampaignID, &agg.Stats.Impressions, &agg.Stats.Spend, &agg.Stats.AvgScore, &agg.Stats.AvgPacingWeight); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		out = append(out, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// CreativeImpressions is one row of a campaign report's top-creatives list.
type CreativeImpressions struct {
	CreativeID  string
	Impressions int64
}

// CampaignReport is a campaign's aggregate stats plus its top five
// creatives by impression count.
type CampaignReport struct {
	CampaignID    string
	Stats         pacing.Stats
	TopCreatives  []CreativeImpressions
}

// CampaignReport builds a single-campaign report.
func (a *Analytics) CampaignReport(ctx context.Context, campaignID string, since, until *time.Time) (CampaignReport, error) {
	if a == nil || a.DB == nil {
		return CampaignReport{}, ErrUnavailable
	}
	stats, err := a.Stats(ctx, campaignID, since, until)
	if err != nil {
		return CampaignReport{}, err
	}

	query := `SELECT creative_id, count() AS impressions FROM match_events WHERE campaign_id = ?`
	args := []any{campaignID}
	if since != nil {
		query += ` AND timestamp >= ?`
		args = append(args, *since)
	}
	if until != nil {
		query += ` AND timestamp < ?`
		args = append(args, *until)
	}
	query += ` GROUP BY creative_id ORDER BY impressions DESC LIMIT 5`

	rows, err := a.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return CampaignReport{}, fmt.Errorf("campaign report top creatives: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("rows close", zap.Error(err))
		}
	}()

	var top []CreativeImpressions
	for rows.Next() {
		var ci CreativeImpressions
		if err := rows.Scan(&ci.CreativeID, &ci.Impressions); err != nil {
			return CampaignReport{}, fmt.Errorf("scan top creative row: %w", err)
		}
		top = append(top, ci)
	}
	if err := rows.Err(); err != nil {
		return CampaignReport{}, fmt.Errorf("rows error: %w", err)
	}

	return CampaignReport{CampaignID: campaignID, Stats: stats, TopCreatives: top}, nil
}
