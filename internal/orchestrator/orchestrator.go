// Package orchestrator schedules recalculation passes over the component graph.
//
// Requests are collected in a pending set and coalesced by a debounce timer.
// When the timer fires, one pass computes every pending component and its
// dependents in dependency order and publishes each result to the store.
package orchestrator

import (
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Simplici0/quotecalc/internal/calcerr"
	"github.com/Simplici0/quotecalc/internal/component"
	"github.com/Simplici0/quotecalc/internal/graph"
	"github.com/Simplici0/quotecalc/internal/pricing"
	"github.com/Simplici0/quotecalc/internal/quote"
	"github.com/Simplici0/quotecalc/internal/store"
)

// DefaultDebounce is the delay used when no WithDebounce option is given.
const DefaultDebounce = 300 * time.Millisecond

// Store is the subset of a component store the orchestrator needs. Publishing
// results is its only write.
type Store interface {
	ComponentInstance(id component.ID) (component.Instance, error)
	EnabledComponents() ([]component.ID, error)
	Subscribe(fn store.Listener) func()
	PublishResult(id component.ID, res component.Result) error
}

// State is the scheduling state.
type State int

const (
	Idle State = iota
	Scheduled
	Processing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Processing:
		return "processing"
	default:
		return "unknown"
	}
}

// Priority controls how soon a request is processed.
type Priority int

const (
	// PriorityNormal waits for the debounce window.
	PriorityNormal Priority = iota
	// PriorityHigh fires on the next timer tick without waiting.
	PriorityHigh
)

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// TimerFunc arranges for f to run after d.
type TimerFunc func(d time.Duration, f func()) Timer

func afterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDebounce sets the coalescing delay.
func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) { o.debounce = d }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithTerms sets the quote terms handed to formulas and the aggregator.
func WithTerms(t pricing.Terms) Option {
	return func(o *Orchestrator) { o.terms = t }
}

// WithClock sets the time source used for result and pass timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithTimerFunc replaces time.AfterFunc.
func WithTimerFunc(f TimerFunc) Option {
	return func(o *Orchestrator) { o.after = f }
}

// Orchestrator owns the pending set and the latest completed quote.
type Orchestrator struct {
	graph *graph.Graph
	calc  *pricing.Calculator
	store Store

	debounce time.Duration
	log      zerolog.Logger
	terms    pricing.Terms
	now      func() time.Time
	after    TimerFunc

	// pass serializes calculation passes.
	pass sync.Mutex

	mu      sync.Mutex
	state   State
	pending map[component.ID]string
	// urgent is set when a PriorityHigh request joins the pending set while
	// a pass runs; the follow-up pass is then armed without delay.
	urgent     bool
	timer      Timer
	generation uint64
	epoch      uint64
	quote      quote.Quote
	report     Report
}

// New returns an idle orchestrator.
func New(g *graph.Graph, calc *pricing.Calculator, s Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		graph:    g,
		calc:     calc,
		store:    s,
		debounce: DefaultDebounce,
		log:      zerolog.New(io.Discard),
		terms:    pricing.DefaultTerms(),
		now:      time.Now,
		after:    afterFunc,
		pending:  make(map[component.ID]string),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.quote = quote.Empty(o.terms)
	return o
}

// ScheduleCalculation adds id to the pending set and restarts the debounce
// timer. A request made while a pass is running joins the next pass.
func (o *Orchestrator) ScheduleCalculation(id component.ID, priority Priority, source string) error {
	if !o.graph.Has(id) {
		return &calcerr.DependencyError{Component: string(id), Reason: "unknown component"}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.pending[id]; !ok {
		o.pending[id] = source
	}
	if o.state == Processing {
		o.urgent = o.urgent || priority == PriorityHigh
		return nil
	}

	delay := o.debounce
	if priority == PriorityHigh {
		delay = 0
	}
	o.arm(delay)
	o.state = Scheduled
	return nil
}

// arm (re)starts the debounce timer. Callers hold o.mu.
func (o *Orchestrator) arm(delay time.Duration) {
	if o.timer != nil {
		o.timer.Stop()
	}
	o.generation++
	gen := o.generation
	o.timer = o.after(delay, func() { o.fire(gen) })
}

func (o *Orchestrator) disarm() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.generation++
}

func (o *Orchestrator) fire(gen uint64) {
	o.mu.Lock()
	if gen != o.generation || o.state != Scheduled {
		o.mu.Unlock()
		return
	}
	o.timer = nil
	o.mu.Unlock()

	o.process(false)
}

// Flush cancels the timer and runs any pending work now. It returns the
// report of the pass it ran, or the last report when nothing was pending.
func (o *Orchestrator) Flush() Report {
	o.mu.Lock()
	o.disarm()
	o.mu.Unlock()

	return o.process(false)
}

// Prime runs a pass over every enabled component, so the quote reflects what
// the store already holds. The pass runs even when nothing is enabled.
func (o *Orchestrator) Prime() (Report, error) {
	ids, err := o.store.EnabledComponents()
	if err != nil {
		return Report{}, err
	}

	o.mu.Lock()
	for _, id := range ids {
		if _, ok := o.pending[id]; !ok {
			o.pending[id] = "startup"
		}
	}
	o.disarm()
	o.mu.Unlock()

	return o.process(true), nil
}

func (o *Orchestrator) process(force bool) Report {
	o.pass.Lock()
	defer o.pass.Unlock()

	o.mu.Lock()
	if len(o.pending) == 0 && !force {
		o.state = Idle
		last := o.report
		o.mu.Unlock()
		return last
	}
	requested := o.pending
	o.pending = make(map[component.ID]string)
	o.urgent = false
	o.state = Processing
	epoch := o.epoch
	o.mu.Unlock()

	report, q, ok := o.runPass(requested)

	o.mu.Lock()
	defer o.mu.Unlock()
	// A clear during the pass discards what it computed.
	if epoch == o.epoch {
		o.report = report
		if ok {
			o.quote = q
		}
	}
	if len(o.pending) > 0 {
		delay := o.debounce
		if o.urgent {
			delay = 0
		}
		o.arm(delay)
		o.state = Scheduled
	} else {
		o.state = Idle
	}
	o.urgent = false
	return report
}

// GetQuote returns the quote of the latest completed pass.
func (o *Orchestrator) GetQuote() quote.Quote {
	o.mu.Lock()
	defer o.mu.Unlock()
	q := o.quote
	q.Lines = make([]quote.Line, len(o.quote.Lines))
	copy(q.Lines, o.quote.Lines)
	return q
}

// LastReport returns the report of the latest completed pass.
func (o *Orchestrator) LastReport() Report {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.report
}

// State returns the current scheduling state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Terms returns the terms used for formulas and aggregation.
func (o *Orchestrator) Terms() pricing.Terms {
	return o.terms
}

// ValidateDependencies reports unknown ids and dependencies that are
// currently disabled in the store.
func (o *Orchestrator) ValidateDependencies(ids []component.ID) (graph.Report, error) {
	enabled, err := o.enabledSet()
	if err != nil {
		return graph.Report{}, err
	}
	return o.graph.ValidateDependencies(ids, enabled), nil
}

// Attach subscribes to store changes: parameter and enable/disable events
// schedule a calculation, and a clear resets the completed state. It returns
// the unsubscribe function.
func (o *Orchestrator) Attach() func() {
	return o.store.Subscribe(func(ev store.Event) {
		switch ev.Type {
		case store.EventParamsChanged, store.EventEnabled, store.EventDisabled:
			if err := o.ScheduleCalculation(ev.Component, PriorityNormal, string(ev.Type)); err != nil {
				o.log.Warn().Err(err).Str("component", string(ev.Component)).Msg("could not schedule calculation")
			}
		case store.EventCleared:
			o.reset()
		}
	})
}

func (o *Orchestrator) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.epoch++
	o.pending = make(map[component.ID]string)
	o.urgent = false
	o.quote = quote.Empty(o.terms)
	o.report = Report{}
	if o.state == Scheduled {
		o.disarm()
		o.state = Idle
	}
}

func (o *Orchestrator) enabledSet() (map[component.ID]bool, error) {
	ids, err := o.store.EnabledComponents()
	if err != nil {
		return nil, err
	}
	enabled := make(map[component.ID]bool, len(ids))
	for _, id := range ids {
		enabled[id] = true
	}
	return enabled, nil
}
