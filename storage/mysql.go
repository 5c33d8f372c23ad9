package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/tolisxo/gmaps-leads/models"
)

type MySQLSink struct {
	db *sql.DB
}

// NewMySQLSink opens dsn (go-sql-driver format) and creates the table.
func NewMySQLSink(ctx context.Context, dsn string) (*MySQLSink, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	s := &MySQLSink{db: db}
	if err := s.ensureTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLSink) ensureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS businesses (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  query VARCHAR(255) NOT NULL,
  identity VARCHAR(512) NOT NULL,
  name VARCHAR(255) NULL,
  category VARCHAR(255) NULL,
  rating DECIMAL(3,1) NULL,
  reviews INT NULL,
  telephone VARCHAR(64) NULL,
  website TEXT NULL,
  address VARCHAR(512) NULL,
  email VARCHAR(255) NULL,
  url TEXT NULL,
  latitude DOUBLE NULL,
  longitude DOUBLE NULL,
  scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  UNIQUE KEY uniq_query_identity (query, identity)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create businesses table: %w", err)
	}
	return nil
}

func (s *MySQLSink) Save(ctx context.Context, query string, records []models.BusinessRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	const stmt = `
INSERT INTO businesses (query, identity, name, category, rating, reviews, telephone, website, address, email, url, latitude, longitude, scraped_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name=VALUES(name),
  category=VALUES(category),
  rating=VALUES(rating),
  reviews=VALUES(reviews),
  telephone=VALUES(telephone),
  website=VALUES(website),
  address=VALUES(address),
  email=COALESCE(VALUES(email), email),
  url=VALUES(url),
  latitude=VALUES(latitude),
  longitude=VALUES(longitude),
  scraped_at=VALUES(scraped_at);`

	prepared, err := s.db.PrepareContext(ctx, stmt)
	if err != nil {
		return 0, err
	}
	defer prepared.Close()

	now := time.Now()
	saved := 0
	for _, rec := range records {
		r := toRow(query, rec)
		if _, err := prepared.ExecContext(ctx,
			r.Query,
			r.Identity,
			textOrNil(r.Name),
			textOrNil(r.Category),
			r.Rating,
			r.Reviews,
			textOrNil(r.Phone),
			textOrNil(r.Website),
			textOrNil(r.Address),
			textOrNil(r.Email),
			textOrNil(r.URL),
			r.Latitude,
			r.Longitude,
			now,
		); err != nil {
			return saved, fmt.Errorf("upsert %s: %w", r.Identity, err)
		}
		saved++
	}
	return saved, nil
}

func (s *MySQLSink) Existing(ctx context.Context, query string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT identity FROM businesses WHERE query = ?`, toRow(query, models.BusinessRecord{}).Query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, err
		}
		existing[identity] = struct{}{}
	}
	return existing, rows.Err()
}

func (s *MySQLSink) Close() error {
	return s.db.Close()
}
