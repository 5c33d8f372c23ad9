package models

// Field names, in the column order used by exports.
const (
	FieldName      = "name"
	FieldCategory  = "category"
	FieldRating    = "rating"
	FieldReviews   = "reviews"
	FieldPhone     = "phone"
	FieldWebsite   = "website"
	FieldAddress   = "address"
	FieldEmail     = "email"
	FieldURL       = "url"
	FieldLatitude  = "latitude"
	FieldLongitude = "longitude"
)

// NotAvailable marks a field that was looked for and judged unusable,
// e.g. a placeholder email.
const NotAvailable = "N/A"

var DefaultFieldOrder = []string{
	FieldName,
	FieldCategory,
	FieldRating,
	FieldReviews,
	FieldPhone,
	FieldWebsite,
	FieldAddress,
	FieldEmail,
	FieldURL,
	FieldLatitude,
	FieldLongitude,
}

// BusinessRecord is the immutable result of extracting one listing.
// Fields that were never found are absent, not empty.
type BusinessRecord struct {
	identity    string
	sourceIndex int
	values      map[string]string
}

func NewBusinessRecord(identity string, sourceIndex int, values map[string]string) BusinessRecord {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return BusinessRecord{identity: identity, sourceIndex: sourceIndex, values: copied}
}

func (r BusinessRecord) Identity() string { return r.identity }

func (r BusinessRecord) SourceIndex() int { return r.sourceIndex }

func (r BusinessRecord) Get(field string) (string, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Value returns the field or "" when absent.
func (r BusinessRecord) Value(field string) string {
	return r.values[field]
}

// Fields returns a copy of the populated fields.
func (r BusinessRecord) Fields() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Row lays the record out in the given column order. Missing fields
// become empty cells.
func (r BusinessRecord) Row(order []string) []string {
	row := make([]string, len(order))
	for i, field := range order {
		row[i] = r.values[field]
	}
	return row
}
