package sync

import (
	"context"
	"fmt"
	"net/url"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/cache"
	"github.com/nhle/civic-dashboard/internal/filter"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/store"
)

// SyncState represents the current state of the snapshot sync.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "syncing"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// SyncStatus holds the state of the snapshot sync.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

// SyncResultMsg is a tea.Msg sent when a sync operation completes.
type SyncResultMsg struct {
	Issues        []model.Issue
	NewIssueCount int
	Error         error

	// Unauthorized is set when the server rejected the session and the
	// refresh failed, so the user has been logged out.
	Unauthorized bool
}

// IssueSource lists issues from the backend.
type IssueSource interface {
	ListIssues(ctx context.Context, params url.Values) (model.IssuePage, error)
}

// LocationSource lists administrative areas from the backend.
type LocationSource interface {
	LocationsByType(ctx context.Context, t model.LocationType, parentID string) ([]model.Location, error)
}

// Invalidator is told when fresh issue data has arrived.
type Invalidator interface {
	Invalidate(tags ...cache.Tag)
}

// Options configures a Poller.
type Options struct {
	Interval time.Duration
	PageSize int
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// Poller keeps the local issue snapshot current, raising a notification
// for each issue it has not seen before.
type Poller struct {
	store     store.Store
	issues    IssueSource
	locations LocationSource
	cache     Invalidator
	log       logrus.FieldLogger
	opts      Options

	status    SyncStatus
	resultCh  chan SyncResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a Poller. locations and inv may be nil.
func New(s store.Store, issues IssueSource, locations LocationSource, inv Invalidator, opts Options, log logrus.FieldLogger) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 120 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 1000
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Poller{
		store:     s,
		issues:    issues,
		locations: locations,
		cache:     inv,
		log:       log.WithField("component", "poller"),
		opts:      opts,
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
	}
}

// Start launches the polling goroutine and returns a command that
// delivers the first SyncResultMsg to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	p.mu.Unlock()

	go p.poll(stop)

	return p.waitForResult()
}

// Stop halts the polling goroutine. The poller can be started again.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate sync.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A sync is already queued.
	}
	return nil
}

// Status returns the current sync status.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) poll(stop <-chan struct{}) {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	p.syncLocations()
	p.SyncOnce()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.SyncOnce()
		case <-p.triggerCh:
			p.SyncOnce()
		}
	}
}

// SyncOnce fetches the newest issues, upserts them into the snapshot and
// raises notifications for new ones. The first sync into an empty snapshot
// raises none. The result is also queued for the Bubble Tea runtime.
func (p *Poller) SyncOnce() SyncResultMsg {
	p.setStatus(SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	res := p.sync(ctx)
	if res.Error != nil {
		p.setStatus(SyncError, res.Error)
		p.log.WithError(res.Error).Warn("issue sync failed")
	} else {
		p.setStatus(SyncIdle, nil)
		p.log.WithFields(logrus.Fields{
			"issues": len(res.Issues),
			"new":    res.NewIssueCount,
		}).Debug("issue sync complete")
	}
	p.sendResult(res)
	return res
}

func (p *Poller) sync(ctx context.Context) SyncResultMsg {
	page, err := p.issues.ListIssues(ctx, filter.MapParams(filter.Default(), p.opts.PageSize))
	if err != nil {
		return SyncResultMsg{Error: err, Unauthorized: api.IsUnauthorized(err)}
	}
	issues := page.Issues

	lastSynced, err := p.store.LastSynced(ctx)
	if err != nil {
		return SyncResultMsg{Error: err}
	}
	known, err := p.store.KnownIssueIDs(ctx)
	if err != nil {
		return SyncResultMsg{Error: err}
	}

	now := time.Now()
	if err := p.store.UpsertIssues(ctx, issues, now); err != nil {
		return SyncResultMsg{Error: err}
	}
	if err := p.store.SetLastSynced(ctx, now); err != nil {
		return SyncResultMsg{Error: err}
	}

	newCount := 0
	if !lastSynced.IsZero() {
		for _, is := range issues {
			if _, ok := known[is.ID]; ok {
				continue
			}
			newCount++
			n := model.Notification{
				Kind:      model.NotifyInfo,
				Title:     "New issue reported",
				Message:   fmt.Sprintf("%s (%s, %s)", is.Title, is.Category, is.Priority),
				IssueID:   is.ID,
				CreatedAt: now,
			}
			if err := p.store.CreateNotification(ctx, n); err != nil {
				p.log.WithError(err).WithField("issue", is.ID).Warn("creating notification")
			}
		}
	}

	if p.cache != nil && newCount > 0 {
		p.cache.Invalidate(cache.General(cache.TagIssue), cache.General(cache.TagAnalytics))
	}

	return SyncResultMsg{Issues: issues, NewIssueCount: newCount}
}

// syncLocations caches the state list so area filtering works offline.
func (p *Poller) syncLocations() {
	if p.locations == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	states, err := p.locations.LocationsByType(ctx, model.LocationState, "")
	if err != nil {
		p.log.WithError(err).Warn("location sync failed")
		return
	}
	if err := p.store.UpsertLocations(ctx, states); err != nil {
		p.log.WithError(err).Warn("caching locations")
	}
}

func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle && err == nil {
		p.status.LastSync = time.Now()
	}
}

// sendResult queues msg without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// Call it after handling each SyncResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
