package demo

import (
	"context"
	"database/sql"
	"fmt"
)

type SeedConfig struct {
	Seed           int64
	Facilities     int
	Days           int
	ErrorsPerDay   int
	SessionsPerDay int
}

func (c SeedConfig) withDefaults() SeedConfig {
	if c.Facilities <= 0 {
		c.Facilities = 4
	}
	if c.Days <= 0 {
		c.Days = 60
	}
	if c.ErrorsPerDay <= 0 {
		c.ErrorsPerDay = 8
	}
	if c.SessionsPerDay <= 0 {
		c.SessionsPerDay = 12
	}
	return c
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS facility_metadata (
		facility_id VARCHAR, facility_name VARCHAR, location VARCHAR,
		opening_hours VARCHAR, bay_count INTEGER, region VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS error_logs (
		facility_id VARCHAR, facility_name VARCHAR, error_timestamp TIMESTAMP,
		event_level VARCHAR, message VARCHAR, message_id VARCHAR, device_id VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS connectivity_logs (
		facility_id VARCHAR, facility_name VARCHAR, log_date DATE, date DATE,
		disconnection_cnt INTEGER, model_status VARCHAR, uptime_pct DOUBLE
	)`,
	`CREATE TABLE IF NOT EXISTS data_quality (
		facility_id VARCHAR, timestamp TIMESTAMP, data_quality_score DOUBLE,
		missing_records INTEGER, latency_ms DOUBLE
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id VARCHAR, facility_id VARCHAR, bay_id VARCHAR, started_at TIMESTAMP,
		ended_at TIMESTAMP, shot_count INTEGER, player_count INTEGER
	)`,
}

// Seed creates the warehouse tables and fills them with generated data.
// Running it against an already seeded database duplicates rows, so callers
// should start from a fresh file.
func Seed(ctx context.Context, db *sql.DB, cfg SeedConfig) error {
	cfg = cfg.withDefaults()
	for _, ddl := range schemaStatements {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	generator := NewGenerator(cfg.Seed, cfg.Facilities)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, facility := range generator.Facilities() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO facility_metadata VALUES ($1, $2, $3, $4, $5, $6)`,
			facility.ID, facility.Name, facility.Location, facility.OpeningHours, facility.BayCount, facility.Region,
		); err != nil {
			return fmt.Errorf("insert facility: %w", err)
		}
	}
	for _, event := range generator.ErrorEvents(cfg.Days, cfg.ErrorsPerDay) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO error_logs VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			event.FacilityID, event.FacilityName, event.Timestamp, event.Level, event.Message, event.MessageID, event.DeviceID,
		); err != nil {
			return fmt.Errorf("insert error event: %w", err)
		}
	}
	for _, day := range generator.ConnectivityDays(cfg.Days) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO connectivity_logs VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			day.FacilityID, day.FacilityName, day.LogDate, day.LogDate, day.DisconnectionCnt, day.ModelStatus, day.UptimePct,
		); err != nil {
			return fmt.Errorf("insert connectivity day: %w", err)
		}
	}
	for _, sample := range generator.QualitySamples(cfg.Days) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO data_quality VALUES ($1, $2, $3, $4, $5)`,
			sample.FacilityID, sample.Timestamp, sample.QualityScore, sample.MissingRecords, sample.LatencyMS,
		); err != nil {
			return fmt.Errorf("insert quality sample: %w", err)
		}
	}
	for _, session := range generator.Sessions(cfg.Days, cfg.SessionsPerDay) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			session.SessionID, session.FacilityID, session.BayID, session.StartedAt, session.EndedAt, session.ShotCount, session.PlayerCount,
		); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	return nil
}
