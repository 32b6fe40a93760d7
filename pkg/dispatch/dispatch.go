// Package dispatch executes canonical tool calls against the book
// catalog and reports results through the UI-facing callbacks.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/shelftalk/shelftalk/pkg/catalog"
	"github.com/shelftalk/shelftalk/pkg/toolcall"
)

// Action names the agent is allowed to invoke.
const (
	ActionFilterBySubject    = "filter_books_by_subject"
	ActionFilterByDifficulty = "filter_books_by_difficulty"
	ActionSearchBooks        = "search_books"
	ActionFilterByAge        = "filter_books_by_age"
	ActionRecommendBooks     = "recommend_books"
)

const maxRecommendations = 6

// Callbacks are consumed by the surrounding UI. Nil callbacks are skipped.
type Callbacks struct {
	OnFilterChange       func(catalog.FilterCriteria)
	OnBookRecommendation func([]catalog.Item)
	OnStatus             func(string)
}

// Dispatcher validates canonical tool calls against the known action set
// and runs the corresponding catalog query. Execution problems are
// reported through the status callback and never escape.
type Dispatcher struct {
	catalog catalog.Catalog
	cb      Callbacks
	tracer  trace.Tracer

	mu      sync.Mutex
	history *toolcall.History
	count   int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTracer sets the tracer used to span each dispatch.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

// New builds a dispatcher over the given catalog.
func New(cat catalog.Catalog, cb Callbacks, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		catalog: cat,
		cb:      cb,
		tracer:  noop.NewTracerProvider().Tracer("shelftalk/dispatch"),
		history: toolcall.NewHistory(0),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch executes one canonical tool call. Each call is executed at
// most once; the dispatcher itself never re-runs a call.
func (d *Dispatcher) Dispatch(ctx context.Context, call *toolcall.Call) {
	_, span := d.tracer.Start(ctx, "dispatch.tool_call", trace.WithAttributes(
		attribute.String("tool.name", call.Name),
		attribute.Bool("tool.inferred", call.Inferred),
	))
	defer span.End()

	d.record(call)
	slog.Debug("Dispatching tool call", "call", call.String(), "inferred", call.Inferred)

	switch call.Name {
	case ActionFilterBySubject:
		d.filterBySubject(call)
	case ActionFilterByDifficulty:
		d.filterByDifficulty(call)
	case ActionSearchBooks:
		d.searchBooks(call)
	case ActionFilterByAge:
		d.filterByAge(call)
	case ActionRecommendBooks:
		d.recommendBooks(call)
	default:
		slog.Warn("Unknown tool call", "name", call.Name)
		span.SetStatus(codes.Error, "unknown action")
		d.status(call, "Couldn't resolve action %q", call.Name)
		return
	}
	span.SetStatus(codes.Ok, "dispatched")
}

func (d *Dispatcher) filterBySubject(call *toolcall.Call) {
	subject, ok := call.StringArg("subject")
	if !ok || subject == "" {
		d.dispatchError(call, "missing subject argument")
		return
	}
	matches := d.catalog.CountBySubject(subject)
	d.filterChange(catalog.FilterCriteria{SelectedSubject: subject})
	d.status(call, "Filtering by subject %s (%d matching)", subject, matches)
}

func (d *Dispatcher) filterByDifficulty(call *toolcall.Call) {
	level, ok := call.StringArg("difficulty")
	if !ok || level == "" {
		d.dispatchError(call, "missing difficulty argument")
		return
	}
	matches := d.catalog.CountByDifficulty(level)
	d.filterChange(catalog.FilterCriteria{SelectedDifficulty: level})
	d.status(call, "Filtering by difficulty %s (%d matching)", level, matches)
}

func (d *Dispatcher) searchBooks(call *toolcall.Call) {
	term, ok := call.StringArg("search_term")
	if !ok {
		term, ok = call.StringArg("query")
	}
	if !ok || term == "" {
		d.dispatchError(call, "missing search term")
		return
	}
	matches := len(d.catalog.Search(term))
	// The raw term is forwarded untouched; the UI owns final filtering.
	d.filterChange(catalog.FilterCriteria{SearchTerm: term})
	d.status(call, "Searching for %q (%d matching)", term, matches)
}

func (d *Dispatcher) filterByAge(call *toolcall.Call) {
	minAge, okMin := call.IntArg("min_age")
	maxAge, okMax := call.IntArg("max_age")
	if !okMin || !okMax {
		d.dispatchError(call, "min_age and max_age are required")
		return
	}
	if minAge > maxAge {
		d.dispatchError(call, fmt.Sprintf("invalid age range %d-%d", minAge, maxAge))
		return
	}
	matches := len(d.catalog.MatchAge(minAge, maxAge))
	d.filterChange(catalog.FilterCriteria{AgeRange: &catalog.AgeRange{Min: minAge, Max: maxAge}})
	d.status(call, "Showing books for ages %d-%d (%d matching)", minAge, maxAge, matches)
}

func (d *Dispatcher) recommendBooks(call *toolcall.Call) {
	preferences, ok := call.StringArg("preferences")
	if !ok || preferences == "" {
		d.dispatchError(call, "missing preferences argument")
		return
	}
	items := d.catalog.Recommend(preferences, maxRecommendations)
	if d.cb.OnBookRecommendation != nil {
		d.cb.OnBookRecommendation(items)
	}
	d.status(call, "Recommending %d book(s) for %q", len(items), preferences)
}

// History returns the retained call records, oldest first.
func (d *Dispatcher) History() []toolcall.Record {
	return d.history.Records()
}

// LastCall returns the most recently dispatched rendered call.
func (d *Dispatcher) LastCall() string {
	return d.history.Last()
}

// Count returns how many calls have been dispatched since the last Reset.
func (d *Dispatcher) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// Reset clears the call history and counters. Used on session restart.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	d.count = 0
	d.mu.Unlock()
	d.history.Clear()
}

func (d *Dispatcher) record(call *toolcall.Call) {
	d.history.Append(call)
	d.mu.Lock()
	d.count++
	d.mu.Unlock()
}

func (d *Dispatcher) filterChange(criteria catalog.FilterCriteria) {
	if d.cb.OnFilterChange != nil {
		d.cb.OnFilterChange(criteria)
	}
}

func (d *Dispatcher) dispatchError(call *toolcall.Call, reason string) {
	slog.Warn("Tool call rejected", "name", call.Name, "reason", reason)
	d.status(call, "Couldn't run %s: %s", call.Name, reason)
}

func (d *Dispatcher) status(call *toolcall.Call, format string, args ...any) {
	if d.cb.OnStatus == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if call.Inferred {
		msg += " (inferred from speech)"
	}
	d.cb.OnStatus(msg)
}
