// Package export writes a result set to CSV and XLSX files.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tolisxo/gmaps-leads/models"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var columnTitles = map[string]string{
	models.FieldName:      "Name",
	models.FieldCategory:  "Category",
	models.FieldRating:    "Rating",
	models.FieldReviews:   "Reviews",
	models.FieldPhone:     "Phone",
	models.FieldWebsite:   "Website",
	models.FieldAddress:   "Address",
	models.FieldEmail:     "Email",
	models.FieldURL:       "Maps URL",
	models.FieldLatitude:  "Latitude",
	models.FieldLongitude: "Longitude",
}

func title(field string) string {
	if t, ok := columnTitles[field]; ok {
		return t
	}
	return field
}

func fieldForTitle(t string) string {
	for field, ct := range columnTitles {
		if ct == t {
			return field
		}
	}
	return t
}

func headers(order []string) []string {
	out := make([]string, len(order))
	for i, f := range order {
		out[i] = title(f)
	}
	return out
}

// Exporter writes Dir/BaseName.<format> for every requested format.
type Exporter struct {
	Dir      string
	BaseName string
	Formats  []string
	Order    []string
}

func (e Exporter) Export(records []models.BusinessRecord) ([]string, error) {
	order := e.Order
	if len(order) == 0 {
		order = models.DefaultFieldOrder
	}
	base := e.BaseName
	if base == "" {
		base = "results"
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var written []string
	var errs []error
	for _, format := range e.Formats {
		path := filepath.Join(e.Dir, base+"."+format)
		var err error
		switch format {
		case FormatCSV:
			err = WriteCSV(path, records, order)
		case FormatXLSX:
			err = WriteXLSX(path, records, order)
		default:
			err = fmt.Errorf("unsupported format %q", format)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		written = append(written, path)
	}
	return written, errors.Join(errs...)
}
