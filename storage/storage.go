// Package storage persists scraped businesses across runs: SQL sinks for
// the records and a Redis set of identities already collected.
package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tolisxo/gmaps-leads/models"
)

// Sink upserts records keyed by (query, identity).
type Sink interface {
	Save(ctx context.Context, query string, records []models.BusinessRecord) (int, error)
	// Existing returns the identities already stored for query.
	Existing(ctx context.Context, query string) (map[string]struct{}, error)
	Close() error
}

func OpenSink(ctx context.Context, driver, dsn string) (Sink, error) {
	switch strings.ToLower(driver) {
	case "mysql":
		return NewMySQLSink(ctx, dsn)
	case "postgres", "pgx":
		return NewPostgresSink(ctx, dsn)
	}
	return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
}

type businessRow struct {
	Query     string
	Identity  string
	Name      string
	Category  string
	Rating    *float64
	Reviews   *int64
	Phone     string
	Website   string
	Address   string
	Email     string
	URL       string
	Latitude  *float64
	Longitude *float64
}

func toRow(query string, r models.BusinessRecord) businessRow {
	email := r.Value(models.FieldEmail)
	if email == models.NotAvailable {
		email = ""
	}
	return businessRow{
		Query:     strings.ToLower(strings.TrimSpace(query)),
		Identity:  r.Identity(),
		Name:      r.Value(models.FieldName),
		Category:  r.Value(models.FieldCategory),
		Rating:    parseFloat(r.Value(models.FieldRating)),
		Reviews:   parseInt(r.Value(models.FieldReviews)),
		Phone:     r.Value(models.FieldPhone),
		Website:   r.Value(models.FieldWebsite),
		Address:   r.Value(models.FieldAddress),
		Email:     email,
		URL:       r.Value(models.FieldURL),
		Latitude:  parseFloat(r.Value(models.FieldLatitude)),
		Longitude: parseFloat(r.Value(models.FieldLongitude)),
	}
}

func parseFloat(v string) *float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseInt(v string) *int64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// textOrNil maps blank strings to SQL NULL.
func textOrNil(v string) any {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return v
}
