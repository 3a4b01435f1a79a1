package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Lova-clover/DevHistory/internal/archive"
	"github.com/Lova-clover/DevHistory/internal/forge"
	"github.com/Lova-clover/DevHistory/internal/models"
	"github.com/Lova-clover/DevHistory/internal/notifications"
	"github.com/Lova-clover/DevHistory/internal/store"
	"github.com/Lova-clover/DevHistory/internal/timeline"
	"github.com/sirupsen/logrus"
)

const (
	dateFormat      = "2006-01-02"
	queueCapacity   = 1024
	handleRetainTTL = time.Hour
)

// Dispatcher runs build and generation jobs on a worker pool. Jobs are
// fire-and-forget: dispatch returns a Handle immediately and callers poll it.
// Per-user jobs are independent, so one user's failure never blocks a batch.
type Dispatcher struct {
	store     store.Store
	builder   *timeline.Builder
	generator *forge.Generator
	notifier  notifications.NotificationInterface // optional
	archive   archive.Archive                     // optional
	now       func() time.Time

	jobTimeout time.Duration
	workers    int
	queue      chan *job
	wg         sync.WaitGroup

	mu      sync.RWMutex
	handles map[string]*Handle
}

type job struct {
	handle *Handle
	run    func(ctx context.Context) (any, error)
}

// Options configures optional dispatcher collaborators.
type Options struct {
	Notifier   notifications.NotificationInterface
	Archive    archive.Archive
	Workers    int
	JobTimeout time.Duration
	Now        func() time.Time
}

// NewDispatcher creates a dispatcher. Start must be called before
// dispatching.
func NewDispatcher(s store.Store, builder *timeline.Builder, generator *forge.Generator, opts Options) *Dispatcher {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	jobTimeout := opts.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 5 * time.Minute
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		store:      s,
		builder:    builder,
		generator:  generator,
		notifier:   opts.Notifier,
		archive:    opts.Archive,
		now:        now,
		jobTimeout: jobTimeout,
		workers:    workers,
		queue:      make(chan *job, queueCapacity),
		handles:    make(map[string]*Handle),
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	logrus.Infof("Job dispatcher started with %d workers", d.workers)
}

// Stop drains the queue and waits for in-flight jobs to finish.
func (d *Dispatcher) Stop() {
	close(d.queue)
	d.wg.Wait()
	logrus.Info("Job dispatcher stopped")
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.jobTimeout)
		result, err := j.run(ctx)
		cancel()
		if err != nil {
			logrus.Errorf("Job %s (%s) failed: %v", j.handle.ID(), j.handle.Name(), err)
		}
		j.handle.finish(result, err)
	}
}

func (d *Dispatcher) dispatch(name string, run func(ctx context.Context) (any, error)) *Handle {
	handle := newHandle(name, d.now())

	d.mu.Lock()
	d.pruneLocked()
	d.handles[handle.ID()] = handle
	d.mu.Unlock()

	d.queue <- &job{handle: handle, run: run}
	return handle
}

// pruneLocked drops finished handles past their retention window so the
// registry does not grow without bound. Callers hold d.mu.
func (d *Dispatcher) pruneLocked() {
	cutoff := d.now().Add(-handleRetainTTL)
	for id, h := range d.handles {
		if h.IsReady() && h.createdAt.Before(cutoff) {
			delete(d.handles, id)
		}
	}
}

// Lookup returns a previously dispatched handle for polling.
func (d *Dispatcher) Lookup(id string) (*Handle, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return h, nil
}

// BuildJobResult is the outcome of a build job; Report is set when the job
// chained into generation.
type BuildJobResult struct {
	Build  *timeline.BuildResult `json:"build"`
	Report *GenerationResult     `json:"report,omitempty"`
}

// GenerationResult is the outcome of a report-generation job.
type GenerationResult struct {
	SummaryID string `json:"summary_id"`
	ContentID string `json:"content_id"`
	Report    string `json:"report"`
}

// FanOutResult is the outcome of the all-users weekly fan-out.
type FanOutResult struct {
	UserCount int    `json:"user_count"`
	WeekStart string `json:"week_start"`
}

// BuildWeekly queues a weekly-summary build. When withReport is set the job
// chains directly into report generation for the freshly built summary.
func (d *Dispatcher) BuildWeekly(userID, weekStartISO string, withReport bool) (*Handle, error) {
	weekStart, err := time.ParseInLocation(dateFormat, weekStartISO, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid week_start %q: %w", weekStartISO, err)
	}

	return d.dispatch("build_weekly", func(ctx context.Context) (any, error) {
		result, err := d.builder.Build(ctx, userID, weekStart)
		if err != nil {
			return nil, err
		}
		out := &BuildJobResult{Build: result}
		if withReport {
			report, err := d.runGeneration(ctx, userID, result.SummaryID)
			if err != nil {
				return nil, err
			}
			out.Report = report
		}
		return out, nil
	}), nil
}

// GenerateReport queues report generation for an existing weekly summary.
func (d *Dispatcher) GenerateReport(userID, weeklySummaryID string) *Handle {
	return d.dispatch("generate_weekly_report", func(ctx context.Context) (any, error) {
		return d.runGeneration(ctx, userID, weeklySummaryID)
	})
}

// Regenerate clears the stored report before queueing, so readers never see
// the stale text as current no matter how long the job waits for a worker.
// Only generation runs on the pool; the underlying build is not re-run.
func (d *Dispatcher) Regenerate(ctx context.Context, userID, weeklySummaryID string) (*Handle, error) {
	summary, err := d.loadOwnedSummary(ctx, userID, weeklySummaryID)
	if err != nil {
		return nil, err
	}
	if err := d.store.ClearLLMSummary(ctx, summary.ID); err != nil {
		return nil, fmt.Errorf("clearing previous report: %w", err)
	}
	return d.dispatch("regenerate_weekly_report", func(ctx context.Context) (any, error) {
		return d.runGeneration(ctx, userID, summary.ID)
	}), nil
}

// GenerateCurrentWeek implements the on-demand trigger: generate for the
// week containing today, building the summary first if it does not exist.
func (d *Dispatcher) GenerateCurrentWeek(userID string) *Handle {
	return d.dispatch("generate_current_week", func(ctx context.Context) (any, error) {
		weekStart := timeline.WeekStart(d.now())
		weekEnd := timeline.WeekEnd(weekStart)

		summary, err := d.store.GetWeeklySummary(ctx, userID, weekStart, weekEnd)
		switch {
		case errors.Is(err, store.ErrNotFound):
			result, err := d.builder.Build(ctx, userID, weekStart)
			if err != nil {
				return nil, err
			}
			report, err := d.runGeneration(ctx, userID, result.SummaryID)
			if err != nil {
				return nil, err
			}
			return &BuildJobResult{Build: result, Report: report}, nil
		case err != nil:
			return nil, fmt.Errorf("loading current week summary: %w", err)
		default:
			report, err := d.runGeneration(ctx, userID, summary.ID)
			if err != nil {
				return nil, err
			}
			return &BuildJobResult{Report: report}, nil
		}
	})
}

// BuildAllWeeklySummaries fans out one build job per user for the previous
// calendar week. Child jobs are independent; this job only queues them.
func (d *Dispatcher) BuildAllWeeklySummaries() *Handle {
	return d.dispatch("build_all_weekly_summaries", func(ctx context.Context) (any, error) {
		weekStart := timeline.PreviousWeekStart(d.now()).Format(dateFormat)

		users, err := d.store.ListUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing users: %w", err)
		}
		for _, user := range users {
			if _, err := d.BuildWeekly(user.ID, weekStart, false); err != nil {
				logrus.Errorf("Failed to queue weekly build for user %s: %v", user.ID, err)
			}
		}
		logrus.Infof("Queued weekly builds for %d users (week of %s)", len(users), weekStart)
		return &FanOutResult{UserCount: len(users), WeekStart: weekStart}, nil
	})
}

func (d *Dispatcher) loadOwnedSummary(ctx context.Context, userID, summaryID string) (*models.WeeklySummary, error) {
	summary, err := d.store.GetWeeklySummaryByID(ctx, summaryID)
	if err != nil {
		return nil, fmt.Errorf("loading weekly summary %s: %w", summaryID, err)
	}
	if summary.UserID != userID {
		return nil, fmt.Errorf("weekly summary %s: %w", summaryID, store.ErrNotFound)
	}
	return summary, nil
}

// runGeneration executes one report generation end to end: snapshot the
// summary row, track a GeneratedContent record through its status
// transitions, call the text generator, and write the results back.
func (d *Dispatcher) runGeneration(ctx context.Context, userID, summaryID string) (*GenerationResult, error) {
	// One read up front: generation works from this snapshot even if a
	// concurrent build overwrites the row meanwhile.
	summary, err := d.loadOwnedSummary(ctx, userID, summaryID)
	if err != nil {
		return nil, err
	}

	profile, err := d.store.GetStyleProfile(ctx, userID)
	usedProfile := true
	if errors.Is(err, store.ErrNotFound) {
		profile = models.DefaultStyleProfile(userID)
		usedProfile = false
	} else if err != nil {
		return nil, fmt.Errorf("loading style profile: %w", err)
	}

	weekStart := summary.WeekStart.Format(dateFormat)
	weekEnd := summary.WeekEnd.Format(dateFormat)

	content, err := d.store.CreateGeneratedContent(ctx, &models.GeneratedContent{
		UserID:      userID,
		ContentType: "weekly_report",
		SourceRef:   "weekly:" + summary.ID,
		Title:       fmt.Sprintf("Weekly Report %s ~ %s", weekStart, weekEnd),
		Status:      models.ContentPending,
		Metadata: &models.ContentMetadata{
			DateRangeStart:  weekStart,
			DateRangeEnd:    weekEnd,
			UseStyleProfile: usedProfile,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating generated content record: %w", err)
	}

	if err := d.store.UpdateGeneratedContentStatus(ctx, content.ID, models.ContentGenerating, ""); err != nil {
		return nil, fmt.Errorf("marking content generating: %w", err)
	}

	// The LLM call can take seconds; no store connection is held across it.
	text, err := d.generator.GenerateWeeklyReport(ctx, summary, profile)
	if err != nil {
		if statusErr := d.store.UpdateGeneratedContentStatus(ctx, content.ID, models.ContentFailed, err.Error()); statusErr != nil {
			logrus.Errorf("Failed to mark content %s failed: %v", content.ID, statusErr)
		}
		return nil, err
	}

	if err := d.store.CompleteGeneratedContent(ctx, content.ID, text); err != nil {
		return nil, fmt.Errorf("storing generated report: %w", err)
	}
	// Legacy single-field mode: the summary row carries the latest report.
	if err := d.store.SetLLMSummary(ctx, summary.ID, text); err != nil {
		return nil, fmt.Errorf("updating summary report: %w", err)
	}

	d.deliver(ctx, userID, summary, text)

	return &GenerationResult{SummaryID: summary.ID, ContentID: content.ID, Report: text}, nil
}

// deliver handles the best-effort post-generation side channels.
func (d *Dispatcher) deliver(ctx context.Context, userID string, summary *models.WeeklySummary, text string) {
	if d.notifier != nil {
		user, err := d.store.GetUser(ctx, userID)
		if err != nil {
			logrus.Errorf("Failed to load user %s for notification: %v", userID, err)
		} else if err := d.notifier.ReportReady(*user, summary, text); err != nil {
			logrus.Errorf("Failed to deliver report notification: %v", err)
		}
	}

	if d.archive != nil {
		name := archive.ReportName(userID, summary.WeekStart.Format(dateFormat))
		if err := d.archive.Store(ctx, name, []byte(text)); err != nil {
			logrus.Errorf("Failed to archive report %s: %v", name, err)
		}
	}
}
