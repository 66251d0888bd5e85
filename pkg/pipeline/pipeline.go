// Package pipeline implements the query-resolution pipeline: it drives each
// submitted request through an ordered set of pluggable, asynchronous
// resolvers until the request is satisfied, exhausted, or abandoned.
//
// A single event-loop goroutine owns every piece of mutable state. Public
// entry points post events onto a channel instead of taking a lock, so the
// dispatcher never recurses and never runs a callback while holding shared
// state. Resolvers execute on a separate pool and answer back through
// ReportResults, keyed by request id.
package pipeline

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/resolvd/resolvd/internal/concurrency"
	"github.com/resolvd/resolvd/pkg/logger"
)

const (
	defaultConcurrentQueries = 4
	maxConcurrentQueries     = 16

	// Temporary (fire-and-forget) queries are evicted from the ledger after
	// this long without any new temporary submission.
	defaultReaperQuietPeriod = 5 * time.Minute

	eventBufferSize = 1024
)

type event interface{ isPipelineEvent() }

type (
	submitEvent struct {
		requests    []Request
		prioritized bool
		temporary   bool
	}
	submitIDEvent struct {
		id          string
		prioritized bool
		temporary   bool
	}
	resultsEvent struct {
		id      string
		results []Result
	}
	timeoutEvent struct {
		id       string
		resolver string
	}
	addResolverEvent    struct{ resolver Resolver }
	removeResolverEvent struct{ resolver Resolver }
	startEvent          struct{}
	stopEvent           struct{}
	reapEvent           struct{}
	requestLookupEvent  struct {
		id    string
		reply chan Request
	}
	resultLookupEvent struct {
		id    string
		reply chan Result
	}
)

func (submitEvent) isPipelineEvent()         {}
func (submitIDEvent) isPipelineEvent()       {}
func (resultsEvent) isPipelineEvent()        {}
func (timeoutEvent) isPipelineEvent()        {}
func (addResolverEvent) isPipelineEvent()    {}
func (removeResolverEvent) isPipelineEvent() {}
func (startEvent) isPipelineEvent()          {}
func (stopEvent) isPipelineEvent()           {}
func (reapEvent) isPipelineEvent()           {}
func (requestLookupEvent) isPipelineEvent()  {}
func (resultLookupEvent) isPipelineEvent()   {}

// Pipeline coordinates bounded global concurrency, per-request resolver
// ordering, timeout escalation and lifecycle of short-lived requests. One
// instance serves the whole process; construct it at the composition root
// and inject it where needed.
type Pipeline struct {
	logger   logger.Logger
	notifier Notifier

	events   chan event
	ctx      context.Context
	cancel   context.CancelFunc
	pool     *pool.ContextPool
	loopDone chan struct{}

	closeOnce sync.Once

	quietPeriod time.Duration

	// State below is owned exclusively by the event loop goroutine.
	running         bool
	maxConcurrent   int
	registry        *registry
	pending         *pendingQueue
	ledger          map[string]Request
	resultIndex     map[string]Result
	budget          map[string]int
	awaitingTimeout map[string]bool
	temporary       map[string]Request
	reapTimer       *time.Timer
}

var _ ResultSink = (*Pipeline)(nil)

type Option func(*Pipeline)

func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithMaxConcurrent overrides the number of requests that may occupy a
// concurrency slot at once. Values outside [1, 16] are clamped.
func WithMaxConcurrent(n int) Option {
	return func(p *Pipeline) { p.maxConcurrent = min(maxConcurrentQueries, max(1, n)) }
}

// WithReaperQuietPeriod overrides how long the reaper waits for temporary
// submissions to go quiet before sweeping the ledger.
func WithReaperQuietPeriod(d time.Duration) Option {
	return func(p *Pipeline) { p.quietPeriod = d }
}

// New constructs a stopped pipeline and starts its event loop. Call Start to
// begin dispatching and Close to tear everything down.
func New(opts ...Option) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())

	p := &Pipeline{
		logger:          logger.NewNoopLogger(),
		notifier:        NoopNotifier{},
		events:          make(chan event, eventBufferSize),
		ctx:             ctx,
		cancel:          cancel,
		loopDone:        make(chan struct{}),
		quietPeriod:     defaultReaperQuietPeriod,
		maxConcurrent:   min(maxConcurrentQueries, max(defaultConcurrentQueries, runtime.NumCPU())),
		registry:        &registry{},
		pending:         newPendingQueue(),
		ledger:          make(map[string]Request),
		resultIndex:     make(map[string]Result),
		budget:          make(map[string]int),
		awaitingTimeout: make(map[string]bool),
		temporary:       make(map[string]Request),
	}

	for _, opt := range opts {
		opt(p)
	}

	// Resolver invocations run here. The pool is unbounded: the budget-slot
	// invariant already caps how many requests are in flight, and a slow
	// resolver whose attempt timed out may still be running while its
	// request moves on to the next resolver.
	p.pool = concurrency.NewPool(ctx, 0)

	p.logger.Info("pipeline constructed", zap.Int("max_concurrent_queries", p.maxConcurrent))

	go p.loop()

	return p
}

// Start begins dispatching whatever is pending. It is typically called once
// the library index signals readiness.
func (p *Pipeline) Start() {
	p.post(startEvent{})
}

// Stop halts dispatching. Resolver calls already issued keep running, but
// their eventual reports are dropped while the pipeline is stopped.
func (p *Pipeline) Stop() {
	p.post(stopEvent{})
}

// Close stops the event loop and waits for in-flight resolver invocations to
// observe cancellation and return.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		p.cancel()
		<-p.loopDone
		_ = p.pool.Wait()
	})
}

func (p *Pipeline) AddResolver(r Resolver) {
	p.post(addResolverEvent{resolver: r})
}

func (p *Pipeline) RemoveResolver(r Resolver) {
	p.post(removeResolverEvent{resolver: r})
}

// Submit queues a batch of requests for resolution. Prioritized batches are
// inserted at the front of the pending queue, preserving their relative
// order. Temporary requests are evicted from the ledger by the reaper after
// a quiet period. Submitting a request id that is already pending leaves its
// queue position untouched.
func (p *Pipeline) Submit(requests []Request, prioritized, temporary bool) {
	if len(requests) == 0 {
		return
	}
	p.post(submitEvent{requests: requests, prioritized: prioritized, temporary: temporary})
}

// SubmitOne is Submit for a single request.
func (p *Pipeline) SubmitOne(req Request, prioritized, temporary bool) {
	if req == nil {
		return
	}
	p.Submit([]Request{req}, prioritized, temporary)
}

// SubmitID resubmits a request already known to the ledger, by id. Unknown
// ids are ignored.
func (p *Pipeline) SubmitID(id string, prioritized, temporary bool) {
	p.post(submitIDEvent{id: id, prioritized: prioritized, temporary: temporary})
}

// ReportResults delivers zero or more results for the given request id. It
// is the single entry point resolvers answer through and is safe to call
// from any goroutine. Reports for unknown or already-evicted ids are logged
// and dropped.
func (p *Pipeline) ReportResults(requestID string, results []Result) {
	p.post(resultsEvent{id: requestID, results: results})
}

// Query returns the live request for the given id, or nil if the id is not
// pending, in flight, or awaiting the reaper.
func (p *Pipeline) Query(id string) Request {
	reply := make(chan Request, 1)
	if !p.post(requestLookupEvent{id: id, reply: reply}) {
		return nil
	}
	select {
	case req := <-reply:
		return req
	case <-p.ctx.Done():
		return nil
	}
}

// Result returns the result with the given id, for as long as its owning
// request remains in the ledger.
func (p *Pipeline) Result(id string) Result {
	reply := make(chan Result, 1)
	if !p.post(resultLookupEvent{id: id, reply: reply}) {
		return nil
	}
	select {
	case res := <-reply:
		return res
	case <-p.ctx.Done():
		return nil
	}
}

func (p *Pipeline) post(ev event) bool {
	return concurrency.TrySendThroughChannel(p.ctx, ev, p.events)
}

func (p *Pipeline) loop() {
	defer close(p.loopDone)

	for {
		select {
		case <-p.ctx.Done():
			return
		case ev := <-p.events:
			p.handle(ev)
		}
	}
}

func (p *Pipeline) handle(ev event) {
	switch ev := ev.(type) {
	case submitEvent:
		p.handleSubmit(ev.requests, ev.prioritized, ev.temporary)
	case submitIDEvent:
		if req, ok := p.ledger[ev.id]; ok {
			p.handleSubmit([]Request{req}, ev.prioritized, ev.temporary)
		}
	case resultsEvent:
		p.handleResults(ev)
	case timeoutEvent:
		p.handleTimeout(ev)
	case addResolverEvent:
		p.registry.add(ev.resolver)
		p.logger.Info("adding resolver", zap.String("resolver", ev.resolver.Name()))
		p.notifier.ResolverAdded(ev.resolver)
	case removeResolverEvent:
		if p.registry.remove(ev.resolver) {
			p.notifier.ResolverRemoved(ev.resolver)
		}
	case startEvent:
		p.logger.Info("pipeline started", zap.Int("pending_queries", p.pending.len()))
		p.running = true
		p.dispatchPass()
	case stopEvent:
		p.running = false
	case reapEvent:
		p.handleReap()
	case requestLookupEvent:
		ev.reply <- p.ledger[ev.id]
	case resultLookupEvent:
		ev.reply <- p.resultIndex[ev.id]
	}
}

func (p *Pipeline) handleSubmit(requests []Request, prioritized, temporary bool) {
	front := 0
	for _, req := range requests {
		id := req.ID()
		if _, ok := p.ledger[id]; !ok {
			p.ledger[id] = req
		}

		if p.pending.contains(id) {
			continue
		}

		if prioritized {
			p.pending.insertAt(front, req)
			front++
		} else {
			p.pending.append(req)
		}

		if temporary {
			p.temporary[id] = req
			p.armReaper()
		}
	}

	pendingQueriesGauge.Set(float64(p.pending.len()))
	p.dispatchPass()
}

// dispatchPass pulls from the pending queue while concurrency slots remain.
// Requests enter the budget map here; presence in that map is what occupies
// a slot.
func (p *Pipeline) dispatchPass() {
	if !p.running {
		return
	}

	for {
		if p.pending.empty() {
			pendingQueriesGauge.Set(0)
			if len(p.budget) == 0 {
				p.notifier.Idle()
			}
			return
		}

		if len(p.budget) >= p.maxConcurrent {
			pendingQueriesGauge.Set(float64(p.pending.len()))
			return
		}

		req, _ := p.pending.pop()
		req.SetCurrentResolver(nil)

		// The attempt ceiling is the registry size captured now, one unit
		// per "try next resolver or give up" step.
		rc := p.registry.len()
		if rc == 0 {
			p.finalize(req)
			continue
		}

		p.budget[req.ID()] = rc
		inflightQueriesGauge.Set(float64(len(p.budget)))
		p.attempt(req)
	}
}

// attempt dispatches req to its best untried resolver, or finalizes it when
// none remains.
func (p *Pipeline) attempt(req Request) {
	if !p.running {
		return
	}

	var r Resolver
	if !(req.IsSatisfied() && !req.IsExhaustiveSearch()) {
		r = p.registry.next(req)
	}

	if r == nil {
		// All resolvers exhausted, or a resolver was removed mid-flight.
		p.finalize(req)
		return
	}

	id := req.ID()
	req.SetCurrentResolver(r)
	p.awaitingTimeout[id] = true
	p.notifier.Resolving(req)
	p.logger.Debug("dispatching to resolver",
		zap.String("resolver", r.Name()),
		zap.String("request_id", id),
	)
	dispatchesTotalCounter.WithLabelValues(r.Name()).Inc()

	p.pool.Go(func(ctx context.Context) error {
		r.Resolve(ctx, req)
		return nil
	})

	if d := r.Timeout(); d > 0 {
		ev := timeoutEvent{id: id, resolver: r.Name()}
		time.AfterFunc(d, func() {
			p.post(ev)
		})
	}
}

func (p *Pipeline) handleResults(ev resultsEvent) {
	if !p.running {
		return
	}

	req, ok := p.ledger[ev.id]
	if !ok {
		p.logger.Debug("result arrived too late", zap.String("request_id", ev.id))
		staleResultsTotalCounter.Inc()
		return
	}

	delete(p.awaitingTimeout, ev.id)

	if len(ev.results) > 0 {
		req.AddResults(ev.results)
		for _, res := range req.Results() {
			p.resultIndex[res.ID()] = res
		}

		if req.IsSatisfied() && !req.IsExhaustiveSearch() {
			// Early success: do not try the remaining resolvers. Reports for
			// a request no longer occupying a slot (a finalized temporary
			// one, say) are recorded above but trigger no dispatch.
			if _, occupied := p.budget[ev.id]; occupied {
				p.finalize(req)
			}
			p.dispatchPass()
			return
		}
	}

	p.consumeAttempt(req)
	p.dispatchPass()
}

func (p *Pipeline) handleTimeout(ev timeoutEvent) {
	if !p.running {
		return
	}

	// A cleared flag means the attempt was already answered.
	if !p.awaitingTimeout[ev.id] {
		return
	}
	delete(p.awaitingTimeout, ev.id)

	req, ok := p.ledger[ev.id]
	if !ok {
		return
	}

	p.logger.Debug("resolver timed out",
		zap.String("resolver", ev.resolver),
		zap.String("request_id", ev.id),
	)
	resolverTimeoutsTotalCounter.WithLabelValues(ev.resolver).Inc()

	p.consumeAttempt(req)
	p.dispatchPass()
}

// consumeAttempt spends one unit of req's attempt budget: finalize at zero,
// otherwise try the next resolver. Requests not occupying a slot are left
// alone.
func (p *Pipeline) consumeAttempt(req Request) {
	id := req.ID()
	remaining, ok := p.budget[id]
	if !ok {
		return
	}

	remaining--
	if remaining <= 0 {
		p.finalize(req)
		return
	}

	p.budget[id] = remaining
	p.attempt(req)
}

// finalize releases req's concurrency slot and notifies it that resolving
// has finished. Temporary requests stay in the ledger until reaped so that
// late results can still be correlated.
func (p *Pipeline) finalize(req Request) {
	id := req.ID()
	delete(p.budget, id)
	delete(p.awaitingTimeout, id)
	inflightQueriesGauge.Set(float64(len(p.budget)))

	req.OnResolvingFinished()

	if _, temp := p.temporary[id]; !temp {
		p.evict(req)
	}
}

// evict drops req from the ledger together with its entries in the global
// result index.
func (p *Pipeline) evict(req Request) {
	for _, res := range req.Results() {
		delete(p.resultIndex, res.ID())
	}
	delete(p.ledger, req.ID())
}

// armReaper (re)starts the debounced sweep timer. Each temporary submission
// pushes the sweep out by the full quiet period.
func (p *Pipeline) armReaper() {
	if p.reapTimer != nil {
		p.reapTimer.Stop()
	}
	p.reapTimer = time.AfterFunc(p.quietPeriod, func() {
		p.post(reapEvent{})
	})
}

func (p *Pipeline) handleReap() {
	if len(p.temporary) == 0 {
		return
	}

	p.logger.Debug("reaping temporary queries", zap.Int("count", len(p.temporary)))
	for id, req := range p.temporary {
		// A temporary request reaped mid-flight must also release its slot,
		// since no future report can reach it once evicted.
		delete(p.budget, id)
		delete(p.awaitingTimeout, id)
		p.evict(req)
		delete(p.temporary, id)
		reapedQueriesTotalCounter.Inc()
	}
	inflightQueriesGauge.Set(float64(len(p.budget)))

	p.dispatchPass()
}
