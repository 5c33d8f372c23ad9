package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tolisxo/gmaps-leads/browser"
	"github.com/tolisxo/gmaps-leads/enrich"
	"github.com/tolisxo/gmaps-leads/locator"
	"github.com/tolisxo/gmaps-leads/models"
	"github.com/tolisxo/gmaps-leads/utils"
)

const (
	ModeLink    = "link"
	ModeInPlace = "inplace"
)

type State int

const (
	StatePending State = iota
	StateOpening
	StateExtracting
	StateSucceeded
	StatePartial
	StateExhausted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateOpening:
		return "opening"
	case StateExtracting:
		return "extracting"
	case StateSucceeded:
		return "succeeded"
	case StatePartial:
		return "partially succeeded"
	case StateExhausted:
		return "exhausted"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Outcome reports what happened to one listing. Record is nil when every
// attempt failed.
type Outcome struct {
	Ref      models.ListingReference
	Record   *models.BusinessRecord
	State    State
	Attempts int
	// Matched maps a field to the index of the locator that produced it.
	Matched map[string]int
	Trace   []State
	Err     error
}

func (o *Outcome) transition(s State) {
	o.State = s
	o.Trace = append(o.Trace, s)
}

// Verdict is the last state reached before the listing was closed.
func (o Outcome) Verdict() State {
	for i := len(o.Trace) - 1; i >= 0; i-- {
		if o.Trace[i] != StateClosed {
			return o.Trace[i]
		}
	}
	return o.State
}

type Extractor struct {
	Session       browser.Session
	Chains        Chains
	Mode          string
	MaxAttempts   int
	Backoff       time.Duration
	SettleDelay   time.Duration
	SettleTimeout time.Duration
	PollInterval  time.Duration
	Sleeper       utils.Sleeper
	// Scope builds the lookup scope for a page; nil means PageScope.
	Scope func(browser.Page) locator.Scope
	// VerifyEmail, when set, must accept an address found on the page.
	VerifyEmail func(string) bool
	// Enrich runs on the extracted fields of a successful listing before
	// the record is built.
	Enrich func(ctx context.Context, ref models.ListingReference, values map[string]string)
	Log    *utils.Logger
}

type extraction struct {
	values   map[string]string
	matched  map[string]int
	resolved int
}

// Extract opens the listing and reads every field, retrying with a linear
// backoff. The page opened for an attempt is released before the next one.
func (e *Extractor) Extract(ctx context.Context, ref models.ListingReference) Outcome {
	out := Outcome{Ref: ref}
	out.transition(StatePending)

	maxAttempts := e.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var got *extraction
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out.Attempts = attempt
		res, err := e.attempt(ctx, ref, &out)
		if err == nil {
			got = res
			break
		}
		lastErr = err
		if ctx.Err() != nil || !IsRetryable(err) {
			break
		}
		e.Log.Warnf("%s: attempt %d/%d failed: %v", ref.Label(), attempt, maxAttempts, err)
		if attempt < maxAttempts {
			if err := e.Sleeper.Sleep(ctx, time.Duration(attempt)*e.Backoff); err != nil {
				lastErr = err
				break
			}
		}
	}

	if got == nil {
		out.transition(StateExhausted)
		out.transition(StateClosed)
		out.Err = fmt.Errorf("%w after %d attempts: %w", ErrExhausted, out.Attempts, lastErr)
		return out
	}

	if name, ok := got.values[models.FieldName]; (!ok || name == "") && ref.Name != "" {
		got.values[models.FieldName] = ref.Name
	}
	if e.Enrich != nil {
		e.Enrich(ctx, ref, got.values)
	}

	rec := models.NewBusinessRecord(ref.Identity, ref.SourceIndex, got.values)
	out.Record = &rec
	out.Matched = got.matched
	if got.resolved == len(detailFieldOrder)+1 {
		out.transition(StateSucceeded)
	} else {
		out.transition(StatePartial)
	}
	out.transition(StateClosed)
	return out
}

func (e *Extractor) attempt(ctx context.Context, ref models.ListingReference, out *Outcome) (*extraction, error) {
	out.transition(StateOpening)
	page, release, err := e.open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer release()

	out.transition(StateExtracting)
	if err := e.settle(ctx, page); err != nil {
		return nil, fmt.Errorf("%w: page never settled: %v", ErrNavigation, err)
	}
	current, err := page.CurrentURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	res := e.readFields(ctx, page, current)
	if res.resolved == 0 {
		return nil, ErrEmptyDetail
	}

	placeURL := ref.URL
	if placeURL == "" {
		placeURL = current
	}
	res.values[models.FieldURL] = placeURL
	if lat, lng, ok := Coordinates(current); ok {
		res.values[models.FieldLatitude] = lat
		res.values[models.FieldLongitude] = lng
	}
	return res, nil
}

// open returns the page holding the listing's details and a func that
// gives it back: closing the tab, or navigating back to the results.
func (e *Extractor) open(ctx context.Context, ref models.ListingReference) (browser.Page, func(), error) {
	if e.Mode != ModeInPlace && ref.LinkBased() {
		page, err := e.Session.NewPage(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrNavigation, err)
		}
		if err := page.Navigate(ctx, ref.URL); err != nil {
			_ = page.Close()
			return nil, nil, fmt.Errorf("%w: %v", ErrNavigation, err)
		}
		return page, func() {
			if err := page.Close(); err != nil {
				e.Log.Warnf("close tab: %v", err)
			}
		}, nil
	}

	page := e.Session.Primary()
	var opened bool
	if err := browser.EvalJSON(ctx, page, openCardScript(ref.Card, ref.CardIndex, e.Chains.CardClickables), &opened); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNavigation, err)
	}
	if !opened {
		return nil, nil, fmt.Errorf("%w: card %d is no longer on the page", ErrNavigation, ref.CardIndex)
	}
	return page, func() { e.backToResults(ctx, page) }, nil
}

func (e *Extractor) backToResults(ctx context.Context, page browser.Page) {
	if err := page.Back(ctx); err != nil {
		e.Log.Warnf("history back failed: %v", err)
		if _, ok := clickFirst(ctx, page, e.Chains.BackButtons); !ok {
			e.Log.Warnf("no back button found either")
		}
	}
	if _, err := waitForAny(ctx, page, e.Sleeper, e.Chains.ResultContainers, e.settleTimeout(), e.pollInterval()); err != nil {
		e.Log.Warnf("results list did not come back: %v", err)
	}
}

func (e *Extractor) settle(ctx context.Context, page browser.Page) error {
	err := utils.Poll(ctx, e.Sleeper, e.settleTimeout(), e.pollInterval(), func(ctx context.Context) (bool, error) {
		var state string
		if err := browser.EvalJSON(ctx, page, readyStateScript, &state); err != nil {
			return false, err
		}
		return state == "complete", nil
	})
	if err != nil {
		return err
	}
	return e.Sleeper.Sleep(ctx, e.SettleDelay)
}

func (e *Extractor) readFields(ctx context.Context, page browser.Page, current string) *extraction {
	scope := e.scope(page)
	res := &extraction{values: make(map[string]string), matched: make(map[string]int)}

	specs := e.Chains.DetailFields(current)
	results := locator.ResolveAll(ctx, scope, specs)
	for _, spec := range specs {
		r := results[spec.Name]
		if !r.Found {
			continue
		}
		// A match that normalizes to nothing keeps its index but no value.
		res.matched[spec.Name] = r.Index
		if r.Value == "" {
			continue
		}
		res.values[spec.Name] = r.Value
		res.resolved++
	}

	email, idx := e.findEmail(ctx, page, scope)
	if email != "" {
		res.values[models.FieldEmail] = email
		if idx >= 0 {
			res.matched[models.FieldEmail] = idx
		}
		if email != models.NotAvailable {
			res.resolved++
		}
	}
	return res
}

// findEmail tries the email chain first and falls back to scanning the
// page markup. The returned index is -1 when the fallback produced it.
func (e *Extractor) findEmail(ctx context.Context, page browser.Page, scope locator.Scope) (string, int) {
	email, idx := "", -1
	if r := locator.Resolve(ctx, scope, e.Chains.EmailSpec()); r.Found && r.Value != "" {
		email, idx = enrich.Pick([]string{r.Value}), r.Index
	}
	if email == "" || email == models.NotAvailable {
		html, err := browser.HTML(ctx, page)
		if err != nil {
			e.Log.Warnf("read page html: %v", err)
		} else if found := enrich.FindInHTML(html); found != "" {
			if found != models.NotAvailable || email == "" {
				email, idx = found, -1
			}
		}
	}
	if email != "" && email != models.NotAvailable && e.VerifyEmail != nil && !e.VerifyEmail(email) {
		e.Log.Infof("dropping %s: domain has no MX records", email)
		email = models.NotAvailable
	}
	return email, idx
}

func (e *Extractor) scope(p browser.Page) locator.Scope {
	if e.Scope != nil {
		return e.Scope(p)
	}
	return pageScope(p)
}

func (e *Extractor) settleTimeout() time.Duration {
	if e.SettleTimeout > 0 {
		return e.SettleTimeout
	}
	return 10 * time.Second
}

func (e *Extractor) pollInterval() time.Duration {
	if e.PollInterval > 0 {
		return e.PollInterval
	}
	return defaultPollInterval
}

// IsRetryable reports whether err is one Extract retries on.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNavigation) || errors.Is(err, ErrEmptyDetail)
}
