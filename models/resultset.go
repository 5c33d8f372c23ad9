package models

// ResultSet collects records in insertion order, keyed by identity and
// bounded by an optional cap. Not safe for concurrent use.
type ResultSet struct {
	records []BusinessRecord
	seen    map[string]struct{}
	max     int
}

// NewResultSet returns an empty set. max <= 0 means unbounded.
func NewResultSet(max int) *ResultSet {
	if max < 0 {
		max = 0
	}
	return &ResultSet{seen: make(map[string]struct{}), max: max}
}

// Add appends r unless its identity is already present or the set is full.
func (s *ResultSet) Add(r BusinessRecord) bool {
	if s.Full() {
		return false
	}
	if _, dup := s.seen[r.identity]; dup {
		return false
	}
	s.seen[r.identity] = struct{}{}
	s.records = append(s.records, r)
	return true
}

func (s *ResultSet) Contains(identity string) bool {
	_, ok := s.seen[identity]
	return ok
}

func (s *ResultSet) Full() bool {
	return s.max > 0 && len(s.records) >= s.max
}

func (s *ResultSet) Len() int { return len(s.records) }

func (s *ResultSet) Max() int { return s.max }

func (s *ResultSet) Records() []BusinessRecord {
	out := make([]BusinessRecord, len(s.records))
	copy(out, s.records)
	return out
}
