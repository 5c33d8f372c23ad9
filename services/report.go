package services

import (
	"fmt"
	"io"
	"time"

	"github.com/tolisxo/gmaps-leads/models"
)

var reportLabels = []struct {
	field string
	label string
}{
	{models.FieldCategory, "Category"},
	{models.FieldAddress, "Address"},
	{models.FieldURL, "Maps URL"},
	{models.FieldWebsite, "Website"},
	{models.FieldPhone, "Phone"},
	{models.FieldEmail, "Email"},
}

// PrintRecords writes a numbered, human readable listing of records.
func PrintRecords(w io.Writer, records []models.BusinessRecord) {
	for i, r := range records {
		fmt.Fprintf(w, "%d. %s\n", i+1, r.Value(models.FieldName))
		if rating := r.Value(models.FieldRating); rating != "" {
			if reviews := r.Value(models.FieldReviews); reviews != "" {
				fmt.Fprintf(w, "   Rating: %s (%s reviews)\n", rating, reviews)
			} else {
				fmt.Fprintf(w, "   Rating: %s\n", rating)
			}
		}
		for _, l := range reportLabels {
			if v := r.Value(l.field); v != "" {
				fmt.Fprintf(w, "   %s: %s\n", l.label, v)
			}
		}
	}
}

func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\nDiscovered %d listings, collected %d (succeeded=%d partial=%d exhausted=%d duplicates=%d) in %s\n",
		s.Discovered, s.Collected, s.Succeeded, s.Partial, s.Exhausted, s.Duplicates, s.Duration.Round(time.Millisecond))
	if s.Stopped {
		fmt.Fprintln(w, "Stopped early on request; remaining listings were skipped.")
	}
}
