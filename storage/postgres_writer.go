package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"flight-scraper/models"
	"flight-scraper/utils"

	_ "github.com/lib/pq"
)

// DefaultResultsTable receives exported results when no table is given
const DefaultResultsTable = "flight_results"

var tableNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

// PostgresWriter stores ranked results in PostgreSQL
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresWriter creates a new PostgresWriter and pings the DB
func NewPostgresWriter(ctx context.Context, connStr string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info("Connected to PostgreSQL successfully")
	return &PostgresWriter{db: db, logger: logger}, nil
}

func resolveTable(destination string) (string, error) {
	if destination == "" {
		return DefaultResultsTable, nil
	}
	if !tableNameRe.MatchString(destination) {
		return "", fmt.Errorf("invalid table name %q", destination)
	}
	return destination, nil
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		id                 SERIAL PRIMARY KEY,
		run_id             VARCHAR(36)   NOT NULL,
		depart_date        DATE          NOT NULL,
		return_date        DATE          NOT NULL,
		flight_index       INTEGER       NOT NULL,
		price              NUMERIC(12,2),
		currency           VARCHAR(8),
		origin             TEXT,
		origin_code        VARCHAR(8),
		destination        TEXT,
		destination_city   VARCHAR(8),
		outbound_departure TEXT,
		outbound_arrival   TEXT,
		outbound_duration  INTEGER,
		outbound_transit   TEXT,
		airline            TEXT,
		inbound_departure  TEXT,
		inbound_arrival    TEXT,
		inbound_duration   INTEGER,
		inbound_transit    TEXT,
		inbound_airline    TEXT,
		booking_link       TEXT,
		scraped_at         TIMESTAMP     NOT NULL DEFAULT NOW(),
		UNIQUE (run_id, depart_date, flight_index)
	);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_price       ON %[1]s (price);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_depart_date ON %[1]s (depart_date);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_run_id      ON %[1]s (run_id);
	`, table)
}

// CreateTable creates the results table if it doesn't exist, with indexes
func (w *PostgresWriter) CreateTable(ctx context.Context, destination string) error {
	table, err := resolveTable(destination)
	if err != nil {
		return err
	}
	if _, err := w.db.ExecContext(ctx, createTableSQL(table)); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	w.logger.Info("Table '%s' is ready", table)
	return nil
}

// resultValues returns the insert arguments for one result, in column order
func resultValues(runID string, r models.AggregatedResult) []interface{} {
	var price interface{}
	var currency string
	o := r.Offer
	if o == nil {
		o = &models.FlightOffer{}
	}
	if o.Price != nil {
		price = o.Price.Total
		currency = o.Price.Currency
	}
	return []interface{}{
		runID,
		r.Window.DepartDate(),
		r.Window.ReturnDate(),
		r.FlightIndex,
		price,
		currency,
		o.Outbound.Departure.Name,
		o.Outbound.Departure.Code,
		o.Outbound.Arrival.Name,
		o.Outbound.Arrival.City,
		o.Outbound.Time.DepartureTime,
		o.Outbound.Time.ArrivalTime,
		o.Outbound.Time.TotalSeconds,
		o.Outbound.TransitSummary(),
		o.Outbound.MainCarrier.Name,
		o.Inbound.Time.DepartureTime,
		o.Inbound.Time.ArrivalTime,
		o.Inbound.Time.TotalSeconds,
		o.Inbound.TransitSummary(),
		o.Inbound.MainCarrier.Name,
		o.BookingLink,
	}
}

// Export inserts results in a single transaction, skipping duplicates.
// The run ID comes from ctx (see WithRunID).
func (w *PostgresWriter) Export(ctx context.Context, results []models.AggregatedResult, destination string) (err error) {
	if len(results) == 0 {
		return nil
	}
	table, err := resolveTable(destination)
	if err != nil {
		return err
	}
	if err := w.CreateTable(ctx, table); err != nil {
		return err
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (run_id, depart_date, return_date, flight_index, price, currency,
			origin, origin_code, destination, destination_city,
			outbound_departure, outbound_arrival, outbound_duration, outbound_transit, airline,
			inbound_departure, inbound_arrival, inbound_duration, inbound_transit, inbound_airline,
			booking_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (run_id, depart_date, flight_index) DO NOTHING
	`, table))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	runID := RunIDFrom(ctx)
	inserted := 0
	for _, r := range results {
		if _, err = stmt.ExecContext(ctx, resultValues(runID, r)...); err != nil {
			return fmt.Errorf("insert %s #%d: %w", r.Window.DepartDate(), r.FlightIndex, err)
		}
		inserted++
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.logger.Info("Inserted %d/%d results into PostgreSQL table %s", inserted, len(results), table)
	return nil
}

// Close closes the database connection
func (w *PostgresWriter) Close() {
	if w.db != nil {
		_ = w.db.Close()
	}
}
