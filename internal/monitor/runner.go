// Package monitor drives one monitoring pass over all configured sources.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"social_monitor/internal/model"
	"social_monitor/internal/notify"
	"social_monitor/internal/source"
	"social_monitor/internal/storage"
)

// Notifier delivers chat notifications.
type Notifier interface {
	Send(ctx context.Context, msg notify.Message) error
}

// Options configures a Runner.
type Options struct {
	Checkers []source.Checker
	Store    storage.Store
	Notifier Notifier

	// Cache is the in-memory mapping shared with the checkers. It is
	// persisted once, after all checkers ran.
	Cache map[string]string

	// AutomatedRun marks a scheduled invocation in the run summary.
	AutomatedRun bool

	// MentionUserID, when set, is appended as a mention token to the
	// run summary.
	MentionUserID string
}

// Runner invokes each source checker in sequence, persists the cache, and
// reports a run summary to the diagnostic channel.
type Runner struct {
	opts Options
	log  *slog.Logger
}

// New creates a Runner.
func New(opts Options, log *slog.Logger) *Runner {
	return &Runner{opts: opts, log: log}
}

// RunAll performs one monitoring pass. Per-source failures are contained and
// reported; the cache is always persisted and the summary always attempted.
func (r *Runner) RunAll(ctx context.Context) []model.Outcome {
	r.log.Info("starting social media monitoring")

	outcomes := make([]model.Outcome, 0, len(r.opts.Checkers))
	for _, c := range r.opts.Checkers {
		outcome := r.runChecker(ctx, c)
		outcomes = append(outcomes, outcome)

		if outcome.Status == model.StatusFailed {
			body := fmt.Sprintf("error in %s: %s", outcome.Source, outcome.Err)
			if err := r.opts.Notifier.Send(ctx, notify.Message{
				Body:           body,
				UseLogChannel:  true,
				MentionOnError: true,
			}); err != nil {
				r.log.Error("send failure notification", "source", outcome.Source, "error", err)
			}
		}
	}

	r.log.Info("social media monitoring completed")
	for _, o := range outcomes {
		r.log.Info("result", "source", o.Source, "status", string(o.Status))
	}

	if err := r.opts.Store.Save(ctx, r.opts.Cache); err != nil {
		r.log.Error("save cache", "error", err)
	}

	summary := r.formatSummary(outcomes)
	if err := r.opts.Notifier.Send(ctx, notify.Message{Body: summary, UseLogChannel: true}); err != nil {
		r.log.Error("send run summary", "error", err)
	}

	return outcomes
}

func (r *Runner) runChecker(ctx context.Context, c source.Checker) (out model.Outcome) {
	out = model.Outcome{Source: c.Name()}
	defer func() {
		if rec := recover(); rec != nil {
			out.Status = model.StatusFailed
			out.Err = fmt.Sprint(rec)
			r.log.Error("checker panicked", "source", c.Name(), "panic", rec)
		}
	}()

	found, err := c.Check(ctx)
	if err != nil {
		out.Status = model.StatusFailed
		out.Err = err.Error()
		r.log.Error("failed to check source", "source", c.Name(), "error", err)
		return out
	}
	if found {
		out.Status = model.StatusNewContent
	} else {
		out.Status = model.StatusNoNewContent
	}
	return out
}

func (r *Runner) formatSummary(outcomes []model.Outcome) string {
	runType := "manual (local)"
	if r.opts.AutomatedRun {
		runType = "automatic (scheduled)"
	}

	lines := []string{
		"**social monitor run summary**",
		"run type: " + runType,
		"",
		"results:",
	}
	for _, o := range outcomes {
		lines = append(lines, fmt.Sprintf("> %s: %s", strings.ToLower(o.Source), o.Status))
	}

	var errLines []string
	for _, o := range outcomes {
		if o.Err != "" {
			errLines = append(errLines, fmt.Sprintf("> %s: %s", strings.ToLower(o.Source), o.Err))
		}
	}
	if len(errLines) > 0 {
		lines = append(lines, "", "errors:")
		lines = append(lines, errLines...)
	}

	if r.opts.MentionUserID != "" {
		lines = append(lines, fmt.Sprintf("<@%s>", r.opts.MentionUserID))
	}
	return strings.Join(lines, "\n")
}
