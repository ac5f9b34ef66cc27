// Package navigation sequences directory navigation requests and commits
// their results to the current path, history and product context.
package navigation

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/aslm/internal/dircontext"
	"github.com/taigrr/aslm/internal/history"
	"github.com/taigrr/aslm/internal/pathnorm"
	"github.com/taigrr/aslm/internal/types"
)

// Outcome is the final state of one navigation request.
type Outcome int

const (
	// NoOp means nothing was requested, e.g. back at the start of history.
	NoOp Outcome = iota
	// Committed means the response became the current state.
	Committed
	// Superseded means a newer request was issued before this one finished.
	Superseded
	// Failed means listing failed and state was left unchanged.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case NoOp:
		return "noop"
	case Committed:
		return "committed"
	case Superseded:
		return "superseded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type historyMove int

const (
	moveNone historyMove = iota
	movePush
	moveSeek
)

// Controller owns the navigation state. The lock is never held while a
// provider runs; results are committed only by the most recently issued
// request.
//
// Back and forward move a pending cursor when they are issued, so repeated
// calls step further through history before any of them finishes. The
// history cursor itself only moves on commit, and a failed request puts the
// pending cursor back on it.
type Controller struct {
	files    FileSystemProvider
	meta     MetadataProvider
	logger   *zap.Logger
	recorder Recorder

	mu          sync.Mutex
	currentPath string
	homePath    string
	fileList    []types.FileEntry
	history     *history.Manager
	cursor      int
	contexts    dircontext.Cache
	latestSeq   uint64
	cancelLast  context.CancelFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.recorder = r
		}
	}
}

// New creates a Controller positioned at homePath with homePath as the only
// history entry and an empty file list. meta may be nil.
func New(homePath string, files FileSystemProvider, meta MetadataProvider, opts ...Option) *Controller {
	home := pathnorm.Normalize(homePath)
	if meta == nil {
		meta = noMetadata{}
	}
	c := &Controller{
		files:       files,
		meta:        meta,
		logger:      zap.NewNop(),
		recorder:    noRecorder{},
		currentPath: home,
		homePath:    home,
		history:     history.New(home),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChangeDirectory navigates to path. With addToHistory the path is pushed
// onto history, discarding forward entries. A listing failure returns a
// *ListError and leaves state unchanged; a superseded request returns
// Superseded with a nil error.
func (c *Controller) ChangeDirectory(ctx context.Context, path string, addToHistory bool) (Outcome, error) {
	target := pathnorm.Normalize(path)
	if target == "" {
		return Failed, &ListError{Path: path, Err: ErrEmptyPath}
	}
	move := moveNone
	if addToHistory {
		move = movePush
	}
	return c.navigate(ctx, move, func() (string, bool) { return target, true })
}

// GoBack navigates to the history entry before the pending cursor.
func (c *Controller) GoBack(ctx context.Context) (Outcome, error) {
	return c.navigate(ctx, moveSeek, func() (string, bool) { return c.step(-1) })
}

// GoForward navigates to the history entry after the pending cursor.
func (c *Controller) GoForward(ctx context.Context) (Outcome, error) {
	return c.navigate(ctx, moveSeek, func() (string, bool) { return c.step(1) })
}

// step moves the pending cursor by delta when the target entry exists.
func (c *Controller) step(delta int) (string, bool) {
	path, ok := c.history.At(c.cursor + delta)
	if ok {
		c.cursor += delta
	}
	return path, ok
}

// GoUp navigates to the parent of the current path. At a root it does
// nothing.
func (c *Controller) GoUp(ctx context.Context) (Outcome, error) {
	return c.navigate(ctx, movePush, func() (string, bool) {
		parent, err := pathnorm.Parent(c.currentPath)
		if errors.Is(err, pathnorm.ErrNoParent) {
			return "", false
		}
		return pathnorm.Normalize(parent), true
	})
}

// GoHome navigates to the home path and records it in history.
func (c *Controller) GoHome(ctx context.Context) (Outcome, error) {
	return c.navigate(ctx, movePush, func() (string, bool) { return c.homePath, c.homePath != "" })
}

// Refresh lists the current path again without touching history.
func (c *Controller) Refresh(ctx context.Context) (Outcome, error) {
	return c.navigate(ctx, moveNone, func() (string, bool) { return c.currentPath, true })
}

// SetHomePath changes the home path. It does not navigate.
func (c *Controller) SetHomePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.homePath = pathnorm.Normalize(path)
}

// HomePath returns the home path.
func (c *Controller) HomePath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.homePath
}

// Snapshot returns a deep copy of the navigation state.
func (c *Controller) Snapshot() types.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	files := make([]types.FileEntry, len(c.fileList))
	for i, e := range c.fileList {
		files[i] = e.Clone()
	}
	return types.Snapshot{
		CurrentPath:   c.currentPath,
		HomePath:      c.homePath,
		Files:         files,
		ActiveContext: c.contexts.Active(),
		History:       c.history.State(),
		CanGoBack:     c.history.CanGoBack(),
		CanGoForward:  c.history.CanGoForward(),
	}
}

// navigate issues one request. target runs under the lock so that picking
// the destination and allocating the sequence number happen together. The
// pending cursor seen at issue time is where a push truncates history and
// where a seek lands.
func (c *Controller) navigate(ctx context.Context, move historyMove, target func() (string, bool)) (Outcome, error) {
	start := time.Now()

	c.mu.Lock()
	path, ok := target()
	if !ok {
		c.mu.Unlock()
		return NoOp, nil
	}
	c.latestSeq++
	seq := c.latestSeq
	cursor := c.cursor
	if c.cancelLast != nil {
		c.cancelLast()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancelLast = cancel
	c.mu.Unlock()
	defer cancel()

	log := c.logger.With(zap.Uint64("seq", seq), zap.String("path", path))
	log.Debug("navigation requested")

	var (
		files    []types.FileEntry
		resolved *types.DirectoryContext
		g        errgroup.Group
	)
	g.Go(func() error {
		var err error
		files, err = c.files.ListFiles(reqCtx, path)
		return err
	})
	g.Go(func() error {
		dc, err := c.meta.GetProductByPath(reqCtx, path)
		if err != nil {
			log.Debug("metadata lookup failed", zap.Error(err))
			return nil
		}
		resolved = dc
		return nil
	})
	listErr := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.latestSeq {
		log.Debug("navigation superseded", zap.Uint64("latest", c.latestSeq))
		c.observe(Superseded, start)
		return Superseded, nil
	}
	c.cancelLast = nil

	if listErr != nil {
		log.Warn("navigation failed", zap.Error(listErr))
		c.cursor = c.history.Index()
		c.observe(Failed, start)
		return Failed, &ListError{Path: path, Err: listErr}
	}

	c.fileList = files
	c.currentPath = path
	tr := c.contexts.Update(path, resolved)
	switch move {
	case movePush:
		c.history.Seek(cursor)
		c.history.Push(path)
	case moveSeek:
		c.history.Seek(cursor)
	}
	c.cursor = c.history.Index()

	log.Info("navigation committed",
		zap.Int("entries", len(files)),
		zap.Stringer("context", tr),
		zap.Int("historyLen", c.history.Len()),
	)
	c.observe(Committed, start)
	return Committed, nil
}

func (c *Controller) observe(o Outcome, start time.Time) {
	c.recorder.ObserveNavigation(o.String(), time.Since(start))
}
