package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tolisxo/gmaps-leads/models"
)

const pgBatchSize = 200

type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresSink{pool: pool}
	if err := s.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresSink) ensureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS businesses (
  id BIGSERIAL PRIMARY KEY,
  query TEXT NOT NULL,
  identity TEXT NOT NULL,
  name TEXT,
  category TEXT,
  rating NUMERIC(3,1),
  reviews INTEGER,
  telephone TEXT,
  website TEXT,
  address TEXT,
  email TEXT,
  url TEXT,
  latitude DOUBLE PRECISION,
  longitude DOUBLE PRECISION,
  scraped_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (query, identity)
);`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create businesses table: %w", err)
	}
	return nil
}

func (s *PostgresSink) Save(ctx context.Context, query string, records []models.BusinessRecord) (int, error) {
	const stmt = `
INSERT INTO businesses (query, identity, name, category, rating, reviews, telephone, website, address, email, url, latitude, longitude, scraped_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (query, identity) DO UPDATE SET
  name = EXCLUDED.name,
  category = EXCLUDED.category,
  rating = EXCLUDED.rating,
  reviews = EXCLUDED.reviews,
  telephone = EXCLUDED.telephone,
  website = EXCLUDED.website,
  address = EXCLUDED.address,
  email = COALESCE(EXCLUDED.email, businesses.email),
  url = EXCLUDED.url,
  latitude = EXCLUDED.latitude,
  longitude = EXCLUDED.longitude,
  scraped_at = EXCLUDED.scraped_at`

	now := time.Now()
	total := 0
	for i := 0; i < len(records); i += pgBatchSize {
		j := min(i+pgBatchSize, len(records))
		b := &pgx.Batch{}
		for _, rec := range records[i:j] {
			r := toRow(query, rec)
			b.Queue(stmt,
				r.Query, r.Identity, textOrNil(r.Name), textOrNil(r.Category), r.Rating, r.Reviews,
				textOrNil(r.Phone), textOrNil(r.Website), textOrNil(r.Address), textOrNil(r.Email),
				textOrNil(r.URL), r.Latitude, r.Longitude, now,
			)
		}
		br := s.pool.SendBatch(ctx, b)
		for k := i; k < j; k++ {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return total, err
			}
			total += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *PostgresSink) Existing(ctx context.Context, query string) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT identity FROM businesses WHERE query = $1`, toRow(query, models.BusinessRecord{}).Query)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	existing := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		existing[id] = struct{}{}
	}
	return existing, nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
