package scraper

import (
	"context"
	"time"

	"github.com/tolisxo/gmaps-leads/browser"
	"github.com/tolisxo/gmaps-leads/locator"
	"github.com/tolisxo/gmaps-leads/utils"
)

type ScrollPolicy struct {
	MaxPulses   int
	MinDelay    time.Duration
	MaxDelay    time.Duration
	TargetCount int
}

type StopReason string

const (
	StopTarget    StopReason = "target reached"
	StopConverged StopReason = "count unchanged"
	StopBudget    StopReason = "pulse budget spent"
)

type ScrollReport struct {
	Count  int
	Pulses int
	Reason StopReason
}

// ScrollDriver pulses the results feed to trigger lazy loading. It stops
// once the loaded count reaches the target, stops changing, or the pulse
// budget runs out, checked in that order after every pulse.
type ScrollDriver struct {
	Page       browser.Page
	Containers []locator.Locator
	Count      func(ctx context.Context) (int, error)
	Sleeper    utils.Sleeper
	Jitter     func(min, max time.Duration) time.Duration
	Log        *utils.Logger
}

func (d *ScrollDriver) Drive(ctx context.Context, p ScrollPolicy) (ScrollReport, error) {
	maxPulses := p.MaxPulses
	if maxPulses < 1 {
		maxPulses = 1
	}
	jitter := d.Jitter
	if jitter == nil {
		jitter = utils.Jitter
	}

	var rep ScrollReport
	prev := -1
	for pulse := 1; pulse <= maxPulses; pulse++ {
		d.pulse(ctx)
		if err := d.Sleeper.Sleep(ctx, jitter(p.MinDelay, p.MaxDelay)); err != nil {
			return rep, err
		}

		sample, err := d.Count(ctx)
		if err != nil {
			d.Log.Warnf("count after pulse %d: %v", pulse, err)
			sample = prev
		}
		// The feed can briefly shrink while it re-renders; only growth counts.
		count := max(sample, prev, 0)

		rep.Pulses = pulse
		rep.Count = count
		if p.TargetCount > 0 && count >= p.TargetCount {
			rep.Reason = StopTarget
			return rep, nil
		}
		if count == prev {
			rep.Reason = StopConverged
			return rep, nil
		}
		prev = count
	}
	rep.Reason = StopBudget
	return rep, nil
}

func (d *ScrollDriver) pulse(ctx context.Context) {
	var used int
	if err := browser.EvalJSON(ctx, d.Page, scrollPulseScript(d.Containers), &used); err != nil {
		d.Log.Warnf("scroll pulse: %v", err)
		return
	}
	if used < 0 {
		d.Log.Infof("no scrollable results container, scrolled the window")
	}
}
