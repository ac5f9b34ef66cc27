package navigation

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/taigrr/aslm/internal/pathnorm"
	"github.com/taigrr/aslm/internal/types"
)

var errUnreadable = errors.New("unreadable")

// fakeFS serves canned listings. A path with a gate blocks until the gate is
// closed, simulating a slow provider that runs to completion regardless of
// cancellation.
type fakeFS struct {
	mu       sync.Mutex
	listings map[string][]types.FileEntry
	errs     map[string]error
	gates    map[string]chan struct{}
	entered  chan string
	calls    []string
}

func newFakeFS(paths ...string) *fakeFS {
	f := &fakeFS{
		listings: make(map[string][]types.FileEntry),
		errs:     make(map[string]error),
		gates:    make(map[string]chan struct{}),
		entered:  make(chan string, 64),
	}
	for _, p := range paths {
		f.listings[pathnorm.Key(p)] = []types.FileEntry{
			{Name: pathnorm.Base(p) + ".unitypackage", Kind: types.KindFile, Path: pathnorm.Join(p, pathnorm.Base(p)+".unitypackage")},
		}
	}
	return f
}

func (f *fakeFS) gate(path string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	f.gates[pathnorm.Key(path)] = g
	return g
}

// drain discards listing notifications from earlier synchronous calls.
func (f *fakeFS) drain() {
	for {
		select {
		case <-f.entered:
		default:
			return
		}
	}
}

func (f *fakeFS) fail(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[pathnorm.Key(path)] = err
}

func (f *fakeFS) ListFiles(ctx context.Context, path string) ([]types.FileEntry, error) {
	key := pathnorm.Key(path)
	f.mu.Lock()
	f.calls = append(f.calls, path)
	gate := f.gates[key]
	err := f.errs[key]
	listing, ok := f.listings[key]
	f.mu.Unlock()

	f.entered <- path
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errUnreadable
	}
	return listing, nil
}

type fakeMeta struct {
	mu       sync.Mutex
	products map[string]*types.DirectoryContext
	errs     map[string]error
}

func newFakeMeta(paths ...string) *fakeMeta {
	m := &fakeMeta{
		products: make(map[string]*types.DirectoryContext),
		errs:     make(map[string]error),
	}
	for _, p := range paths {
		m.products[pathnorm.Key(p)] = &types.DirectoryContext{Path: p, Name: pathnorm.Base(p)}
	}
	return m
}

func (m *fakeMeta) GetProductByPath(ctx context.Context, path string) (*types.DirectoryContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[pathnorm.Key(path)]; err != nil {
		return nil, err
	}
	return m.products[pathnorm.Key(path)].Clone(), nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *fakeRecorder) ObserveNavigation(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

// mustCommit returns a checker for a navigation result, used as
// mustCommit(t)(c.GoBack(ctx)).
func mustCommit(t *testing.T) func(Outcome, error) {
	t.Helper()
	return func(outcome Outcome, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("navigation error = %v", err)
		}
		if outcome != Committed {
			t.Fatalf("outcome = %v, want committed", outcome)
		}
	}
}

func TestController_New(t *testing.T) {
	c := New("C:/UnityAssets/", newFakeFS(), nil)
	snap := c.Snapshot()

	if snap.CurrentPath != "C:/UnityAssets" || snap.HomePath != "C:/UnityAssets" {
		t.Errorf("paths = %q, %q, want C:/UnityAssets", snap.CurrentPath, snap.HomePath)
	}
	if want := []string{"C:/UnityAssets"}; !slices.Equal(snap.History.Stack, want) || snap.History.Index != 0 {
		t.Errorf("History = %+v, want %q at 0", snap.History, want)
	}
	if len(snap.Files) != 0 || snap.ActiveContext != nil {
		t.Errorf("fresh snapshot = %+v, want no files or context", snap)
	}
}

func TestController_HistoryBranching(t *testing.T) {
	ctx := context.Background()
	fs := newFakeFS("C:/A", "C:/B", "C:/C", "C:/D")
	c := New("C:/A", fs, nil)

	mustCommit(t)(c.ChangeDirectory(ctx, "C:/B", true))
	mustCommit(t)(c.ChangeDirectory(ctx, "C:/C", true))
	mustCommit(t)(c.GoBack(ctx))
	mustCommit(t)(c.GoBack(ctx))

	if got := c.Snapshot().CurrentPath; got != "C:/A" {
		t.Fatalf("CurrentPath = %q, want C:/A", got)
	}
	if outcome, err := c.GoBack(ctx); outcome != NoOp || err != nil {
		t.Errorf("GoBack() at start = %v, %v, want noop", outcome, err)
	}
	snap := c.Snapshot()
	if !snap.CanGoForward || snap.CanGoBack {
		t.Errorf("CanGoBack = %v, CanGoForward = %v, want false, true", snap.CanGoBack, snap.CanGoForward)
	}

	mustCommit(t)(c.ChangeDirectory(ctx, "C:/D", true))
	if outcome, err := c.GoForward(ctx); outcome != NoOp || err != nil {
		t.Errorf("GoForward() after branching = %v, %v, want noop", outcome, err)
	}

	snap = c.Snapshot()
	if snap.CurrentPath != "C:/D" {
		t.Errorf("CurrentPath = %q, want C:/D", snap.CurrentPath)
	}
	if want := []string{"C:/A", "C:/D"}; !slices.Equal(snap.History.Stack, want) {
		t.Errorf("History.Stack = %q, want %q", snap.History.Stack, want)
	}
}

func TestController_BackForwardDoNotPush(t *testing.T) {
	ctx := context.Background()
	c := New("C:/A", newFakeFS("C:/A", "C:/B"), nil)

	mustCommit(t)(c.ChangeDirectory(ctx, "C:/B", true))
	mustCommit(t)(c.GoBack(ctx))
	mustCommit(t)(c.GoForward(ctx))

	snap := c.Snapshot()
	if snap.History.Len() != 2 || snap.History.Index != 1 {
		t.Errorf("History = %+v, want 2 entries at index 1", snap.History)
	}
	if snap.CurrentPath != "C:/B" {
		t.Errorf("CurrentPath = %q, want C:/B", snap.CurrentPath)
	}
}

func TestController_ChangeDirectoryWithoutHistory(t *testing.T) {
	c := New("C:/A", newFakeFS("C:/B"), nil)
	mustCommit(t)(c.ChangeDirectory(context.Background(), "C:/B", false))

	snap := c.Snapshot()
	if snap.CurrentPath != "C:/B" {
		t.Errorf("CurrentPath = %q, want C:/B", snap.CurrentPath)
	}
	if snap.History.Len() != 1 {
		t.Errorf("History.Len() = %d, want 1", snap.History.Len())
	}
}

func TestController_ContextRetention(t *testing.T) {
	ctx := context.Background()
	fs := newFakeFS("D:/Pack/Product", "D:/Pack/Product/sub", "D:/Pack/Other")
	c := New("D:/Pack", fs, newFakeMeta("D:/Pack/Product"))

	mustCommit(t)(c.ChangeDirectory(ctx, "D:/Pack/Product", true))
	if got := c.Snapshot().ActiveContext; got == nil || got.Path != "D:/Pack/Product" {
		t.Fatalf("ActiveContext = %+v, want D:/Pack/Product", got)
	}

	mustCommit(t)(c.ChangeDirectory(ctx, "D:/Pack/Product/sub", true))
	if got := c.Snapshot().ActiveContext; got == nil || got.Path != "D:/Pack/Product" {
		t.Fatalf("ActiveContext in subdirectory = %+v, want D:/Pack/Product", got)
	}

	mustCommit(t)(c.ChangeDirectory(ctx, "D:/Pack/Other", true))
	if got := c.Snapshot().ActiveContext; got != nil {
		t.Errorf("ActiveContext outside product = %+v, want nil", got)
	}
}

func TestController_MetadataFailureIsAbsence(t *testing.T) {
	ctx := context.Background()
	fs := newFakeFS("D:/Pack/Product", "D:/Pack/Product/sub", "D:/Pack/Broken")
	meta := newFakeMeta("D:/Pack/Product")
	meta.errs[pathnorm.Key("D:/Pack/Product/sub")] = errors.New("catalog offline")
	meta.errs[pathnorm.Key("D:/Pack/Broken")] = errors.New("catalog offline")
	c := New("D:/Pack", fs, meta)

	mustCommit(t)(c.ChangeDirectory(ctx, "D:/Pack/Product", true))
	mustCommit(t)(c.ChangeDirectory(ctx, "D:/Pack/Product/sub", true))
	if got := c.Snapshot().ActiveContext; got == nil || got.Path != "D:/Pack/Product" {
		t.Errorf("ActiveContext = %+v, want retained D:/Pack/Product", got)
	}

	mustCommit(t)(c.ChangeDirectory(ctx, "D:/Pack/Broken", true))
	if got := c.Snapshot().ActiveContext; got != nil {
		t.Errorf("ActiveContext = %+v, want nil", got)
	}
}

func TestController_StaleResponseIsDiscarded(t *testing.T) {
	ctx := context.Background()
	fs := newFakeFS("C:/A", "C:/B", "C:/C")
	gateB := fs.gate("C:/B")
	rec := &fakeRecorder{}
	c := New("C:/A", fs, nil, WithRecorder(rec))

	type result struct {
		outcome Outcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		o, err := c.ChangeDirectory(ctx, "C:/B", true)
		done <- result{o, err}
	}()
	if got := <-fs.entered; got != "C:/B" {
		t.Fatalf("first listing = %q, want C:/B", got)
	}

	mustCommit(t)(c.ChangeDirectory(ctx, "C:/C", true))
	close(gateB)

	r := <-done
	if r.outcome != Superseded || r.err != nil {
		t.Fatalf("stale request = %v, %v, want superseded, nil", r.outcome, r.err)
	}

	snap := c.Snapshot()
	if snap.CurrentPath != "C:/C" {
		t.Errorf("CurrentPath = %q, want C:/C", snap.CurrentPath)
	}
	if len(snap.Files) != 1 || snap.Files[0].Name != "C.unitypackage" {
		t.Errorf("Files = %+v, want C's listing", snap.Files)
	}
	if want := []string{"C:/A", "C:/C"}; !slices.Equal(snap.History.Stack, want) {
		t.Errorf("History.Stack = %q, want %q", snap.History.Stack, want)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if want := []string{"committed", "superseded"}; !slices.Equal(rec.outcomes, want) {
		t.Errorf("recorded outcomes = %q, want %q", rec.outcomes, want)
	}
}

type cancelAwareFS struct {
	*fakeFS
	cancelled chan error
}

func (f *cancelAwareFS) ListFiles(ctx context.Context, path string) ([]types.FileEntry, error) {
	if path == "C:/Slow" {
		f.entered <- path
		<-ctx.Done()
		f.cancelled <- ctx.Err()
		return nil, ctx.Err()
	}
	return f.fakeFS.ListFiles(ctx, path)
}

func TestController_NewRequestCancelsPrevious(t *testing.T) {
	ctx := context.Background()
	fs := &cancelAwareFS{fakeFS: newFakeFS("C:/Fast"), cancelled: make(chan error, 1)}
	c := New("C:/A", fs, nil)

	done := make(chan Outcome, 1)
	go func() {
		o, _ := c.ChangeDirectory(ctx, "C:/Slow", true)
		done <- o
	}()
	<-fs.entered

	mustCommit(t)(c.ChangeDirectory(ctx, "C:/Fast", true))

	if err := <-fs.cancelled; !errors.Is(err, context.Canceled) {
		t.Errorf("slow provider context error = %v, want context.Canceled", err)
	}
	if o := <-done; o != Superseded {
		t.Errorf("slow request outcome = %v, want superseded", o)
	}
	if got := c.Snapshot().CurrentPath; got != "C:/Fast" {
		t.Errorf("CurrentPath = %q, want C:/Fast", got)
	}
}

func TestController_ListFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	fs := newFakeFS("D:/Pack/Product", "D:/Pack/X")
	fs.fail("D:/Pack/X", errUnreadable)
	c := New("D:/Pack", fs, newFakeMeta("D:/Pack/Product", "D:/Pack/X"))

	mustCommit(t)(c.ChangeDirectory(ctx, "D:/Pack/Product", true))
	before := c.Snapshot()

	outcome, err := c.ChangeDirectory(ctx, "D:/Pack/X", true)
	if outcome != Failed {
		t.Errorf("outcome = %v, want failed", outcome)
	}
	var listErr *ListError
	if !errors.As(err, &listErr) {
		t.Fatalf("error = %v, want *ListError", err)
	}
	if listErr.Path != "D:/Pack/X" {
		t.Errorf("ListError.Path = %q, want D:/Pack/X", listErr.Path)
	}
	if !errors.Is(err, errUnreadable) {
		t.Errorf("error does not wrap provider error: %v", err)
	}

	if after := c.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Errorf("state changed after failure:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestController_FailedBackKeepsCursor(t *testing.T) {
	ctx := context.Background()
	fs := newFakeFS("C:/A", "C:/B")
	c := New("C:/A", fs, nil)
	mustCommit(t)(c.ChangeDirectory(ctx, "C:/B", true))

	fs.fail("C:/A", errUnreadable)
	if outcome, err := c.GoBack(ctx); outcome != Failed || err == nil {
		t.Fatalf("GoBack() = %v, %v, want failed with error", outcome, err)
	}

	snap := c.Snapshot()
	if snap.History.Index != 1 || snap.History.Stack[snap.History.Index] != snap.CurrentPath {
		t.Errorf("History = %+v, CurrentPath = %q, want cursor on current path", snap.History, snap.CurrentPath)
	}
	if !snap.CanGoBack {
		t.Error("CanGoBack = false after failed back, want true")
	}
}

type navResult struct {
	outcome Outcome
	err     error
}

// startGated issues nav in the background and waits until its listing of
// path has started.
func startGated(t *testing.T, fs *fakeFS, path string, nav func() (Outcome, error)) <-chan navResult {
	t.Helper()
	fs.drain()
	done := make(chan navResult, 1)
	go func() {
		o, err := nav()
		done <- navResult{o, err}
	}()
	if got := <-fs.entered; got != path {
		t.Fatalf("listing started for %q, want %q", got, path)
	}
	return done
}

func TestController_RepeatedBackStepsFurther(t *testing.T) {
	ctx := context.Background()
	fs := newFakeFS("C:/A", "C:/B", "C:/C")
	c := New("C:/A", fs, nil)
	mustCommit(t)(c.ChangeDirectory(ctx, "C:/B", true))
	mustCommit(t)(c.ChangeDirectory(ctx, "C:/C", true))

	gateB := fs.gate("C:/B")
	first := startGated(t, fs, "C:/B", func() (Outcome, error) { return c.GoBack(ctx) })

	mustCommit(t)(c.GoBack(ctx))
	close(gateB)

	if r := <-first; r.outcome != Superseded || r.err != nil {
		t.Errorf("first GoBack() = %v, %v, want superseded", r.outcome, r.err)
	}

	snap := c.Snapshot()
	if snap.CurrentPath != "C:/A" || snap.History.Index != 0 {
		t.Errorf("CurrentPath = %q, Index = %d, want C:/A at 0", snap.CurrentPath, snap.History.Index)
	}
	if snap.History.Len() != 3 {
		t.Errorf("History.Len() = %d, want 3", snap.History.Len())
	}

	gateB = fs.gate("C:/B")
	first = startGated(t, fs, "C:/B", func() (Outcome, error) { return c.GoForward(ctx) })
	mustCommit(t)(c.GoForward(ctx))
	close(gateB)
	<-first

	if snap := c.Snapshot(); snap.CurrentPath != "C:/C" || snap.History.Index != 2 {
		t.Errorf("after two forwards: CurrentPath = %q, Index = %d, want C:/C at 2", snap.CurrentPath, snap.History.Index)
	}
}

func TestController_FailedRepeatedBackResetsCursor(t *testing.T) {
	ctx := context.Background()
	fs := newFakeFS("C:/A", "C:/B", "C:/C")
	c := New("C:/A", fs, nil)
	mustCommit(t)(c.ChangeDirectory(ctx, "C:/B", true))
	mustCommit(t)(c.ChangeDirectory(ctx, "C:/C", true))

	gateB := fs.gate("C:/B")
	first := startGated(t, fs, "C:/B", func() (Outcome, error) { return c.GoBack(ctx) })

	fs.fail("C:/A", errUnreadable)
	if outcome, err := c.GoBack(ctx); outcome != Failed || err == nil {
		t.Fatalf("second GoBack() = %v, %v, want failed", outcome, err)
	}
	close(gateB)
	<-first

	snap := c.Snapshot()
	if snap.CurrentPath != "C:/C" || snap.History.Index != 2 {
		t.Fatalf("CurrentPath = %q, Index = %d, want C:/C at 2", snap.CurrentPath, snap.History.Index)
	}

	mustCommit(t)(c.GoBack(ctx))
	if got := c.Snapshot().CurrentPath; got != "C:/B" {
		t.Errorf("GoBack() after reset landed on %q, want C:/B", got)
	}
}

func TestController_PushAfterPendingBackTruncatesThere(t *testing.T) {
	ctx := context.Background()
	fs := newFakeFS("C:/A", "C:/B", "C:/C", "C:/D")
	c := New("C:/A", fs, nil)
	mustCommit(t)(c.ChangeDirectory(ctx, "C:/B", true))
	mustCommit(t)(c.ChangeDirectory(ctx, "C:/C", true))

	gateB := fs.gate("C:/B")
	first := startGated(t, fs, "C:/B", func() (Outcome, error) { return c.GoBack(ctx) })

	mustCommit(t)(c.ChangeDirectory(ctx, "C:/D", true))
	close(gateB)
	<-first

	snap := c.Snapshot()
	if want := []string{"C:/A", "C:/B", "C:/D"}; !slices.Equal(snap.History.Stack, want) {
		t.Errorf("History.Stack = %q, want %q", snap.History.Stack, want)
	}
	if snap.History.Index != 2 || snap.CurrentPath != "C:/D" {
		t.Errorf("CurrentPath = %q, Index = %d, want C:/D at 2", snap.CurrentPath, snap.History.Index)
	}
}

func TestController_RefreshAfterPendingBackKeepsCursor(t *testing.T) {
	ctx := context.Background()
	fs := newFakeFS("C:/A", "C:/B")
	c := New("C:/A", fs, nil)
	mustCommit(t)(c.ChangeDirectory(ctx, "C:/B", true))

	gateA := fs.gate("C:/A")
	first := startGated(t, fs, "C:/A", func() (Outcome, error) { return c.GoBack(ctx) })

	mustCommit(t)(c.Refresh(ctx))
	close(gateA)
	<-first

	snap := c.Snapshot()
	if snap.CurrentPath != "C:/B" || snap.History.Index != 1 {
		t.Errorf("CurrentPath = %q, Index = %d, want C:/B at 1", snap.CurrentPath, snap.History.Index)
	}
}

func TestController_GoUp(t *testing.T) {
	ctx := context.Background()
	c := New("C:/UnityAssets/Foo", newFakeFS("C:/UnityAssets", "C:/"), nil)

	mustCommit(t)(c.GoUp(ctx))
	snap := c.Snapshot()
	if snap.CurrentPath != "C:/UnityAssets" {
		t.Errorf("CurrentPath = %q, want C:/UnityAssets", snap.CurrentPath)
	}
	if want := []string{"C:/UnityAssets/Foo", "C:/UnityAssets"}; !slices.Equal(snap.History.Stack, want) {
		t.Errorf("History.Stack = %q, want %q", snap.History.Stack, want)
	}

	mustCommit(t)(c.GoUp(ctx))
	if got := c.Snapshot().CurrentPath; got != "C:/" {
		t.Errorf("CurrentPath = %q, want C:/", got)
	}
}

func TestController_GoUpAtRootIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fs := newFakeFS("C:/")
	c := New("C:/", fs, nil)
	mustCommit(t)(c.Refresh(ctx))
	before := c.Snapshot()

	for range 3 {
		outcome, err := c.GoUp(ctx)
		if outcome != NoOp || err != nil {
			t.Fatalf("GoUp() at root = %v, %v, want noop", outcome, err)
		}
	}

	if after := c.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Errorf("GoUp at root mutated state:\nbefore %+v\nafter  %+v", before, after)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.calls) != 1 {
		t.Errorf("provider calls = %q, want only the refresh", fs.calls)
	}
}

func TestController_HomePath(t *testing.T) {
	ctx := context.Background()
	c := New("C:/A", newFakeFS("C:/A", "D:/Home"), nil)

	c.SetHomePath(`D:\Home\`)
	if got := c.HomePath(); got != `D:\Home` {
		t.Errorf("HomePath() = %q, want %q", got, `D:\Home`)
	}
	if got := c.Snapshot().CurrentPath; got != "C:/A" {
		t.Errorf("SetHomePath navigated to %q", got)
	}

	mustCommit(t)(c.GoHome(ctx))
	snap := c.Snapshot()
	if snap.CurrentPath != `D:\Home` || snap.History.Len() != 2 {
		t.Errorf("after GoHome: CurrentPath = %q, history = %+v", snap.CurrentPath, snap.History)
	}
}

func TestController_EmptyPath(t *testing.T) {
	c := New("C:/A", newFakeFS(), nil)
	outcome, err := c.ChangeDirectory(context.Background(), "   ", true)
	if outcome != Failed || !errors.Is(err, ErrEmptyPath) {
		t.Errorf("ChangeDirectory(blank) = %v, %v, want failed with ErrEmptyPath", outcome, err)
	}
}

func TestController_NormalizesTarget(t *testing.T) {
	c := New("C:/A", newFakeFS("C:/B"), nil)
	mustCommit(t)(c.ChangeDirectory(context.Background(), "  C:/B/ ", true))
	if got := c.Snapshot().CurrentPath; got != "C:/B" {
		t.Errorf("CurrentPath = %q, want C:/B", got)
	}
}

func TestController_SnapshotIsCopy(t *testing.T) {
	c := New("C:/A", newFakeFS("C:/B"), nil)
	mustCommit(t)(c.ChangeDirectory(context.Background(), "C:/B", true))

	snap := c.Snapshot()
	snap.Files[0].Name = "mutated"
	snap.History.Stack[0] = "mutated"

	again := c.Snapshot()
	if again.Files[0].Name == "mutated" || again.History.Stack[0] == "mutated" {
		t.Error("Snapshot() shares memory with controller state")
	}
}

func TestOutcome_String(t *testing.T) {
	for o, want := range map[Outcome]string{NoOp: "noop", Committed: "committed", Superseded: "superseded", Failed: "failed", Outcome(42): "unknown"} {
		if got := o.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestListError_Error(t *testing.T) {
	err := &ListError{Path: "C:/X", Err: errUnreadable}
	if got := err.Error(); got != "list directory C:/X failed: unreadable" {
		t.Errorf("Error() = %q", got)
	}
}
