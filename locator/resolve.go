package locator

import (
	"context"
	"errors"
)

// ErrNoMatch is returned by a Scope when a locator finds nothing.
var ErrNoMatch = errors.New("locator: no match")

// Scope looks a single locator up, either page-wide or under one element.
type Scope interface {
	Lookup(ctx context.Context, loc Locator) (string, error)
}

// ScopeKind tells the caller which root a FieldSpec expects.
type ScopeKind int

const (
	ScopePage ScopeKind = iota
	ScopeElement
)

type Normalizer func(string) string

// FieldSpec is a named field with candidate locators in priority order.
type FieldSpec struct {
	Name       string
	Candidates []Locator
	Normalize  Normalizer
	Scope      ScopeKind
}

// Result of resolving one FieldSpec. Index is -1 when nothing matched.
type Result struct {
	Value string
	Found bool
	Index int
}

func (r Result) String() string {
	if !r.Found {
		return "<absent>"
	}
	return r.Value
}

// Resolve tries each candidate in order and stops at the first that
// yields a value. A lookup error counts as a miss. A match whose
// normalized value is empty still ends the search.
func Resolve(ctx context.Context, scope Scope, spec FieldSpec) Result {
	for i, loc := range spec.Candidates {
		if ctx.Err() != nil {
			break
		}
		raw, err := scope.Lookup(ctx, loc)
		if err != nil {
			continue
		}
		if spec.Normalize != nil {
			raw = spec.Normalize(raw)
		}
		return Result{Value: raw, Found: true, Index: i}
	}
	return Result{Index: -1}
}

// ResolveAll resolves every spec against the same scope, keyed by name.
func ResolveAll(ctx context.Context, scope Scope, specs []FieldSpec) map[string]Result {
	out := make(map[string]Result, len(specs))
	for _, spec := range specs {
		out[spec.Name] = Resolve(ctx, scope, spec)
	}
	return out
}
