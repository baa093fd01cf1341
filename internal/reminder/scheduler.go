package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/minikapp/minik/internal/model"
	"github.com/minikapp/minik/internal/store"
)

const (
	defaultInterval = 5 * time.Minute
	tickTimeout     = 2 * time.Minute
	sentRetention   = 30 * 24 * time.Hour
)

// Scheduler polls for due reminders. Each tick walks every family, fans
// out per child and bucket, and hands due events to the dispatcher.
type Scheduler struct {
	mu         sync.RWMutex
	logger     *slog.Logger
	dispatcher *Dispatcher
	events     *store.EventStore
	children   *store.ChildStore
	families   *store.FamilyStore
	pushStore  *store.PushStore
	buckets    []int
	interval   time.Duration
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewScheduler(
	logger *slog.Logger,
	dispatcher *Dispatcher,
	events *store.EventStore,
	children *store.ChildStore,
	families *store.FamilyStore,
	pushStore *store.PushStore,
	buckets []int,
) *Scheduler {
	if len(buckets) == 0 {
		buckets = DefaultBuckets
	}
	return &Scheduler{
		logger:     logger.With("component", "scheduler"),
		dispatcher: dispatcher,
		events:     events,
		children:   children,
		families:   families,
		pushStore:  pushStore,
		buckets:    buckets,
		interval:   defaultInterval,
	}
}

// Start begins the poll loop with an immediate first pass, so reminders
// are not held for a full interval after startup.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	ctx, cancelTick := context.WithTimeout(ctx, tickTimeout)
	defer cancelTick()

	familyIDs, err := s.families.ListFamilyIDs()
	if err != nil {
		s.logger.Error("list families failed", "error", err)
		return
	}

	now := time.Now()
	for _, familyID := range familyIDs {
		s.checkFamily(ctx, familyID, now)
		s.dailySeizureNudge(familyID, now)
	}

	if err := s.pushStore.CleanupSent(now.Add(-sentRetention)); err != nil {
		s.logger.Error("cleanup sent reminders failed", "error", err)
	}
}

// checkFamily evaluates every child against every polled bucket. A
// failing child is skipped for this tick; the others still get checked.
func (s *Scheduler) checkFamily(ctx context.Context, familyID int64, now time.Time) {
	children, err := s.children.ListByFamily(familyID)
	if err != nil {
		s.logger.Error("list children failed", "family_id", familyID, "error", err)
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, child := range children {
		for _, bucket := range s.buckets {
			g.Go(func() error {
				s.checkChildBucket(ctx, familyID, child, bucket, now)
				return nil
			})
		}
	}
	g.Wait()
}

func (s *Scheduler) checkChildBucket(ctx context.Context, familyID int64, child model.Child, bucket int, now time.Time) {
	if ctx.Err() != nil {
		return
	}

	windowEnd := now.Add(time.Duration(bucket) * time.Minute)
	events, err := s.events.ListForReminder(
		ctx, child.ID, bucket,
		now.Format("2006-01-02"), windowEnd.Format("2006-01-02"),
	)
	if err != nil {
		s.logger.Error("list reminder events failed",
			"child_id", child.ID, "bucket", bucket, "error", err)
		return
	}

	for _, event := range Due(events, bucket, now) {
		title, body := EventMessage(event, child.Name)
		s.dispatcher.Dispatch(
			familyID,
			CategoryFor(event.EventType),
			EventRefID(event.ID),
			bucket,
			title, body,
			EventTag(event.ID),
		)
	}
}

// dailySeizureNudge sends one generic log prompt per family per day. The
// per-day refID keeps the dedup table from ever firing it twice.
func (s *Scheduler) dailySeizureNudge(familyID int64, now time.Time) {
	children, err := s.children.ListByFamily(familyID)
	if err != nil || len(children) == 0 {
		return
	}

	title, body := SeizureNudgeMessage()
	s.dispatcher.Dispatch(
		familyID,
		model.CategorySeizureReminder,
		DailyRefID("seizure", now.Format("2006-01-02")),
		0,
		title, body,
		"seizure-reminder",
	)
}
