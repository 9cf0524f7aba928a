package entries

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/celerix-dev/guardup-admin/internal/query"
	"github.com/celerix-dev/guardup-admin/pkg/schema"
)

var (
	// ErrStaleResponse is returned when a fetch completes after a newer one was issued.
	// Its result is discarded.
	ErrStaleResponse = errors.New("entries: stale response discarded")
	// ErrViewClosed is returned when a fetch completes after the view was closed.
	ErrViewClosed = errors.New("entries: view closed")
)

// Recorder observes discarded responses.
type Recorder interface {
	StaleResponse()
}

type nopRecorder struct{}

func (nopRecorder) StaleResponse() {}

// Snapshot is a copy of the view state at a point in time.
type Snapshot struct {
	Filters query.Filters
	Entries []schema.Entry
	Mounted bool
}

// View holds one operator's filter state and the last successfully fetched
// result list. Each refetch takes a sequence number; only the response to the
// latest issued number may replace the result list.
type View struct {
	fetcher  Fetcher
	logger   *slog.Logger
	recorder Recorder

	seq    atomic.Uint64
	closed atomic.Bool

	mu      sync.Mutex
	mounted bool
	filters query.Filters
	results []schema.Entry
}

// NewView creates an unmounted View. recorder may be nil.
func NewView(fetcher Fetcher, logger *slog.Logger, recorder Recorder) *View {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &View{
		fetcher:  fetcher,
		logger:   logger.With("component", "entries_view"),
		recorder: recorder,
	}
}

// Mount shows the view with initial filters and fetches unconditionally.
func (v *View) Mount(ctx context.Context, f query.Filters) error {
	v.mu.Lock()
	v.mounted = true
	v.filters = f
	seq := v.seq.Add(1)
	v.mu.Unlock()

	return v.refetch(ctx, seq, f)
}

// Submit refetches for f: through Update when f differs from the current
// filters, otherwise through Apply.
func (v *View) Submit(ctx context.Context, f query.Filters) error {
	v.mu.Lock()
	same := v.mounted && v.filters == f
	v.mu.Unlock()

	if same {
		return v.Apply(ctx)
	}
	return v.Update(ctx, f)
}

// Update replaces the filter state. It refetches when the filters changed or
// the view was never mounted; otherwise it is a no-op.
func (v *View) Update(ctx context.Context, f query.Filters) error {
	v.mu.Lock()
	changed := !v.mounted || v.filters != f
	v.filters = f
	v.mounted = true
	if !changed {
		v.mu.Unlock()
		return nil
	}
	seq := v.seq.Add(1)
	v.mu.Unlock()

	return v.refetch(ctx, seq, f)
}

// Apply refetches with the current filters unconditionally.
func (v *View) Apply(ctx context.Context) error {
	v.mu.Lock()
	v.mounted = true
	f := v.filters
	seq := v.seq.Add(1)
	v.mu.Unlock()

	return v.refetch(ctx, seq, f)
}

// Close unmounts the view. Fetches still in flight are discarded on arrival.
func (v *View) Close() {
	v.closed.Store(true)
}

// Closed reports whether Close was called.
func (v *View) Closed() bool {
	return v.closed.Load()
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Snapshot{
		Filters: v.filters,
		Entries: slices.Clone(v.results),
		Mounted: v.mounted,
	}
}

// BuildingCodes returns the distinct building codes of the current results, sorted.
func (v *View) BuildingCodes() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	set := make(map[string]struct{}, len(v.results))
	for _, e := range v.results {
		if e.BuildingCode != "" {
			set[e.BuildingCode] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

// refetch fetches f under seq. The caller takes seq from v.seq in the same
// v.mu section that set the filters, so sequence order matches filter order.
func (v *View) refetch(ctx context.Context, seq uint64, f query.Filters) error {
	if v.closed.Load() {
		return ErrViewClosed
	}

	results, err := v.fetcher.Fetch(ctx, f)

	if v.closed.Load() {
		v.logger.Debug("response after close discarded", "seq", seq)
		return ErrViewClosed
	}
	if err != nil {
		// Prior results stay on display.
		v.logger.Error("fetch entries", "seq", seq, "error", err)
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if latest := v.seq.Load(); seq != latest {
		v.recorder.StaleResponse()
		v.logger.Warn("stale response discarded", "seq", seq, "latest", latest)
		return ErrStaleResponse
	}

	v.results = results
	return nil
}
