package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeResult struct {
	id string
}

func (r *fakeResult) ID() string { return r.id }

// fakeRequest is satisfied as soon as it holds any result, unless marked
// exhaustive.
type fakeRequest struct {
	id         string
	exhaustive bool

	mu         sync.Mutex
	results    []Result
	resolvedBy []Resolver
	current    Resolver

	finishOnce sync.Once
	finished   chan struct{}
}

var _ Request = (*fakeRequest)(nil)

func newFakeRequest(id string) *fakeRequest {
	return &fakeRequest{id: id, finished: make(chan struct{})}
}

func (r *fakeRequest) ID() string { return r.id }

func (r *fakeRequest) AddResults(results []Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, results...)
}

func (r *fakeRequest) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

func (r *fakeRequest) IsSatisfied() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results) > 0
}

func (r *fakeRequest) IsExhaustiveSearch() bool { return r.exhaustive }

func (r *fakeRequest) ResolvedBy() []Resolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Resolver, len(r.resolvedBy))
	copy(out, r.resolvedBy)
	return out
}

func (r *fakeRequest) SetCurrentResolver(res Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = res
	if res == nil {
		return
	}
	for _, attempted := range r.resolvedBy {
		if attempted == res {
			return
		}
	}
	r.resolvedBy = append(r.resolvedBy, res)
}

func (r *fakeRequest) OnResolvingFinished() {
	r.finishOnce.Do(func() { close(r.finished) })
}

func (r *fakeRequest) isFinished() bool {
	select {
	case <-r.finished:
		return true
	default:
		return false
	}
}

// fakeResolver records the requests it receives. An onResolve hook, when
// set, runs on the pool goroutine handed the attempt.
type fakeResolver struct {
	name    string
	weight  int
	timeout time.Duration

	mu        sync.Mutex
	requests  []Request
	onResolve func(ctx context.Context, req Request)
}

var _ Resolver = (*fakeResolver)(nil)

func (r *fakeResolver) Name() string           { return r.name }
func (r *fakeResolver) Weight() int            { return r.weight }
func (r *fakeResolver) Timeout() time.Duration { return r.timeout }

func (r *fakeResolver) Resolve(ctx context.Context, req Request) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	hook := r.onResolve
	r.mu.Unlock()

	if hook != nil {
		hook(ctx, req)
	}
}

func (r *fakeResolver) requestCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func (r *fakeResolver) requestIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.requests))
	for _, req := range r.requests {
		ids = append(ids, req.ID())
	}
	return ids
}

// countingNotifier counts idle notifications.
type countingNotifier struct {
	NoopNotifier
	idle atomic.Int64
}

func (n *countingNotifier) Idle() { n.idle.Add(1) }

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func TestEscalatesThroughResolversByWeight(t *testing.T) {
	p := New(WithMaxConcurrent(4))
	t.Cleanup(p.Close)

	r1 := &fakeResolver{name: "r1", weight: 10}
	r2 := &fakeResolver{name: "r2", weight: 20}
	p.AddResolver(r1)
	p.AddResolver(r2)
	p.Start()

	q := newFakeRequest("q1")
	p.SubmitOne(q, false, false)

	// The higher weighted resolver is tried first.
	require.Eventually(t, func() bool { return r2.requestCount() == 1 }, waitFor, tick)
	require.Zero(t, r1.requestCount())

	// An empty answer escalates to the next resolver.
	p.ReportResults(q.ID(), nil)
	require.Eventually(t, func() bool { return r1.requestCount() == 1 }, waitFor, tick)

	// A satisfying answer finalizes without trying anything further.
	res := &fakeResult{id: "res1"}
	p.ReportResults(q.ID(), []Result{res})
	require.Eventually(t, q.isFinished, waitFor, tick)

	require.Equal(t, []Result{res}, q.Results())
	require.Equal(t, []Resolver{r2, r1}, q.ResolvedBy())

	// Finalized and non-temporary, so the ledger no longer knows it.
	require.Eventually(t, func() bool { return p.Query(q.ID()) == nil }, waitFor, tick)
}

func TestSecondRequestWaitsForFreeSlot(t *testing.T) {
	p := New(WithMaxConcurrent(1))
	t.Cleanup(p.Close)

	r := &fakeResolver{name: "r", weight: 10}
	p.AddResolver(r)
	p.Start()

	q1 := newFakeRequest("q1")
	q2 := newFakeRequest("q2")
	p.Submit([]Request{q1, q2}, false, false)

	require.Eventually(t, func() bool { return r.requestCount() == 1 }, waitFor, tick)
	require.Equal(t, []string{"q1"}, r.requestIDs())

	// q2 must not dispatch while q1 holds the only slot.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, r.requestCount())

	// Exhausting q1 frees the slot for q2.
	p.ReportResults(q1.ID(), nil)
	require.Eventually(t, func() bool { return r.requestCount() == 2 }, waitFor, tick)
	require.Equal(t, []string{"q1", "q2"}, r.requestIDs())
}

func TestTimeoutEscalatesAndFinalizes(t *testing.T) {
	p := New(WithMaxConcurrent(4))
	t.Cleanup(p.Close)

	// Never answers; the attempt must fail via its timeout.
	r := &fakeResolver{name: "silent", weight: 10, timeout: 50 * time.Millisecond}
	p.AddResolver(r)
	p.Start()

	q := newFakeRequest("q1")
	p.SubmitOne(q, false, false)

	require.Eventually(t, q.isFinished, waitFor, tick)
	require.Empty(t, q.Results())
	require.Equal(t, []Resolver{r}, q.ResolvedBy())
}

func TestTemporaryRequestReapedAfterQuietPeriod(t *testing.T) {
	p := New(WithMaxConcurrent(4), WithReaperQuietPeriod(75*time.Millisecond))
	t.Cleanup(p.Close)

	r := &fakeResolver{name: "r", weight: 10}
	p.AddResolver(r)
	p.Start()

	q := newFakeRequest("q1")
	p.SubmitOne(q, false, true)

	require.Eventually(t, func() bool { return r.requestCount() == 1 }, waitFor, tick)
	p.ReportResults(q.ID(), nil)
	require.Eventually(t, q.isFinished, waitFor, tick)

	// Finalized but temporary: still addressable until the reaper runs.
	require.NotNil(t, p.Query(q.ID()))

	require.Eventually(t, func() bool { return p.Query(q.ID()) == nil }, waitFor, tick)
}

func TestLateReportsAreDropped(t *testing.T) {
	p := New(WithMaxConcurrent(4))
	t.Cleanup(p.Close)

	r := &fakeResolver{name: "r", weight: 10}
	p.AddResolver(r)
	p.Start()

	q := newFakeRequest("q1")
	p.SubmitOne(q, false, false)

	require.Eventually(t, func() bool { return r.requestCount() == 1 }, waitFor, tick)
	p.ReportResults(q.ID(), []Result{&fakeResult{id: "res1"}})
	require.Eventually(t, q.isFinished, waitFor, tick)
	require.Eventually(t, func() bool { return p.Query(q.ID()) == nil }, waitFor, tick)

	// Reports after finalization and eviction are no-ops.
	p.ReportResults(q.ID(), []Result{&fakeResult{id: "res2"}})
	p.ReportResults(q.ID(), []Result{&fakeResult{id: "res3"}})

	time.Sleep(50 * time.Millisecond)
	require.Nil(t, p.Query(q.ID()))
	require.Len(t, q.Results(), 1)
}

func TestConcurrencyNeverExceedsCap(t *testing.T) {
	const maxSlots = 2

	p := New(WithMaxConcurrent(maxSlots))
	t.Cleanup(p.Close)

	var active, peak atomic.Int64
	release := make(chan struct{})

	r := &fakeResolver{name: "slow", weight: 10}
	r.onResolve = func(ctx context.Context, req Request) {
		n := active.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		select {
		case <-release:
		case <-ctx.Done():
		}
		active.Add(-1)
		p.ReportResults(req.ID(), nil)
	}
	p.AddResolver(r)
	p.Start()

	var requests []Request
	for i := 0; i < 6; i++ {
		requests = append(requests, newFakeRequest(fmt.Sprintf("q%d", i)))
	}
	p.Submit(requests, false, false)

	require.Eventually(t, func() bool { return active.Load() == maxSlots }, waitFor, tick)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int64(maxSlots), active.Load())

	close(release)
	for _, req := range requests {
		fr := req.(*fakeRequest)
		require.Eventually(t, fr.isFinished, waitFor, tick)
	}

	require.LessOrEqual(t, peak.Load(), int64(maxSlots))
	require.Equal(t, 6, r.requestCount())
}

func TestPrioritizedBatchKeepsOrderAheadOfPending(t *testing.T) {
	p := New(WithMaxConcurrent(1))
	t.Cleanup(p.Close)

	r := &fakeResolver{name: "r", weight: 10}
	r.onResolve = func(_ context.Context, req Request) {
		p.ReportResults(req.ID(), nil)
	}
	p.AddResolver(r)

	// Queue everything before starting so the full order is observable.
	a, b := newFakeRequest("a"), newFakeRequest("b")
	c, d := newFakeRequest("c"), newFakeRequest("d")
	p.Submit([]Request{a, b}, false, false)
	p.Submit([]Request{c, d}, true, false)

	p.Start()

	require.Eventually(t, func() bool { return r.requestCount() == 4 }, waitFor, tick)
	require.Equal(t, []string{"c", "d", "a", "b"}, r.requestIDs())
}

func TestResubmittingPendingRequestIsNoOp(t *testing.T) {
	p := New(WithMaxConcurrent(1))
	t.Cleanup(p.Close)

	r := &fakeResolver{name: "r", weight: 10}
	r.onResolve = func(_ context.Context, req Request) {
		p.ReportResults(req.ID(), nil)
	}
	p.AddResolver(r)

	q := newFakeRequest("q1")
	p.SubmitOne(q, false, false)
	p.SubmitOne(q, false, false)
	p.SubmitOne(q, true, false)

	p.Start()

	require.Eventually(t, q.isFinished, waitFor, tick)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, r.requestCount())
}

func TestIdleFiresOnlyOnceEverythingDrains(t *testing.T) {
	notifier := &countingNotifier{}
	p := New(WithMaxConcurrent(4), WithNotifier(notifier))
	t.Cleanup(p.Close)

	r := &fakeResolver{name: "r", weight: 10}
	p.AddResolver(r)

	// Queue the request before starting: an empty start would already
	// count as idle.
	q := newFakeRequest("q1")
	p.SubmitOne(q, false, false)
	p.Start()

	require.Eventually(t, func() bool { return r.requestCount() == 1 }, waitFor, tick)

	// A slot is occupied: no idle signal.
	require.Zero(t, notifier.idle.Load())

	p.ReportResults(q.ID(), []Result{&fakeResult{id: "res1"}})
	require.Eventually(t, func() bool { return notifier.idle.Load() > 0 }, waitFor, tick)
}

func TestNoResolversFinalizesImmediately(t *testing.T) {
	p := New(WithMaxConcurrent(4))
	t.Cleanup(p.Close)
	p.Start()

	q := newFakeRequest("q1")
	p.SubmitOne(q, false, false)

	require.Eventually(t, q.isFinished, waitFor, tick)
	require.Empty(t, q.Results())
}

func TestRemovedResolverIsNotRetried(t *testing.T) {
	p := New(WithMaxConcurrent(4))
	t.Cleanup(p.Close)

	r1 := &fakeResolver{name: "r1", weight: 10}
	r2 := &fakeResolver{name: "r2", weight: 20}
	p.AddResolver(r1)
	p.AddResolver(r2)
	p.Start()

	q := newFakeRequest("q1")
	p.SubmitOne(q, false, false)
	require.Eventually(t, func() bool { return r2.requestCount() == 1 }, waitFor, tick)

	// r1 disappears while q awaits r2's answer. The late answer is still
	// accepted, but nothing re-dispatches to r1.
	p.RemoveResolver(r1)
	p.ReportResults(q.ID(), nil)

	require.Eventually(t, q.isFinished, waitFor, tick)
	require.Zero(t, r1.requestCount())
}

func TestTimeoutAfterAnswerIsNoOp(t *testing.T) {
	p := New(WithMaxConcurrent(4))
	t.Cleanup(p.Close)

	r := &fakeResolver{name: "r", weight: 10, timeout: 50 * time.Millisecond}
	p.AddResolver(r)
	p.Start()

	q := newFakeRequest("q1")
	p.SubmitOne(q, false, false)

	require.Eventually(t, func() bool { return r.requestCount() == 1 }, waitFor, tick)
	p.ReportResults(q.ID(), []Result{&fakeResult{id: "res1"}})
	require.Eventually(t, q.isFinished, waitFor, tick)

	// Let the stale timer fire against the already-answered attempt.
	time.Sleep(100 * time.Millisecond)
	require.Nil(t, p.Query(q.ID()))
	require.Len(t, q.Results(), 1)
}

func TestExhaustiveSearchTriesAllResolversDespiteResults(t *testing.T) {
	p := New(WithMaxConcurrent(4))
	t.Cleanup(p.Close)

	r1 := &fakeResolver{name: "r1", weight: 10}
	r2 := &fakeResolver{name: "r2", weight: 20}
	p.AddResolver(r1)
	p.AddResolver(r2)
	p.Start()

	q := newFakeRequest("q1")
	q.exhaustive = true
	p.SubmitOne(q, false, false)

	require.Eventually(t, func() bool { return r2.requestCount() == 1 }, waitFor, tick)

	// A good result does not stop an exhaustive search.
	p.ReportResults(q.ID(), []Result{&fakeResult{id: "res1"}})
	require.Eventually(t, func() bool { return r1.requestCount() == 1 }, waitFor, tick)

	p.ReportResults(q.ID(), []Result{&fakeResult{id: "res2"}})
	require.Eventually(t, q.isFinished, waitFor, tick)
	require.Len(t, q.Results(), 2)
}

func TestStopDropsReportsAndStartResumes(t *testing.T) {
	p := New(WithMaxConcurrent(4))
	t.Cleanup(p.Close)

	r := &fakeResolver{name: "r", weight: 10}
	p.AddResolver(r)

	q := newFakeRequest("q1")
	p.SubmitOne(q, false, false)

	// Not started yet: nothing dispatches.
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, r.requestCount())

	p.Start()
	require.Eventually(t, func() bool { return r.requestCount() == 1 }, waitFor, tick)

	// While stopped, a report is dropped and the request stays in flight.
	p.Stop()
	p.ReportResults(q.ID(), []Result{&fakeResult{id: "res1"}})
	time.Sleep(50 * time.Millisecond)
	require.False(t, q.isFinished())
	require.Empty(t, q.Results())

	// Starting again resumes the in-flight request where it left off.
	p.Start()
	p.ReportResults(q.ID(), []Result{&fakeResult{id: "res2"}})
	require.Eventually(t, q.isFinished, waitFor, tick)
	require.Len(t, q.Results(), 1)
}

func TestResultLookupTracksOwningRequestLifetime(t *testing.T) {
	p := New(WithMaxConcurrent(4), WithReaperQuietPeriod(75*time.Millisecond))
	t.Cleanup(p.Close)

	r := &fakeResolver{name: "r", weight: 10}
	p.AddResolver(r)
	p.Start()

	q := newFakeRequest("q1")
	p.SubmitOne(q, false, true)

	require.Eventually(t, func() bool { return r.requestCount() == 1 }, waitFor, tick)
	res := &fakeResult{id: "res1"}
	p.ReportResults(q.ID(), []Result{res})
	require.Eventually(t, q.isFinished, waitFor, tick)

	// The result stays indexed while its temporary owner awaits the reaper.
	require.Equal(t, res, p.Result(res.ID()))

	require.Eventually(t, func() bool { return p.Result(res.ID()) == nil }, waitFor, tick)
}

func TestAttemptedResolverSetNeverShrinksOrDuplicates(t *testing.T) {
	p := New(WithMaxConcurrent(4))
	t.Cleanup(p.Close)

	r1 := &fakeResolver{name: "r1", weight: 10}
	r2 := &fakeResolver{name: "r2", weight: 20}
	p.AddResolver(r1)
	p.AddResolver(r2)
	p.Start()

	q := newFakeRequest("q1")
	p.SubmitOne(q, false, false)

	require.Eventually(t, func() bool { return r2.requestCount() == 1 }, waitFor, tick)
	p.ReportResults(q.ID(), nil)
	require.Eventually(t, func() bool { return r1.requestCount() == 1 }, waitFor, tick)
	p.ReportResults(q.ID(), nil)
	require.Eventually(t, q.isFinished, waitFor, tick)

	seen := map[Resolver]bool{}
	for _, res := range q.ResolvedBy() {
		require.False(t, seen[res])
		seen[res] = true
	}
	require.Len(t, q.ResolvedBy(), 2)
}
