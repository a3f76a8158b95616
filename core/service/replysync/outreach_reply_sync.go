package replysync

import (
	"context"
	"sync/atomic"
	"time"

	"outreach_server/core/domain"
	portin "outreach_server/core/port/in"
	"outreach_server/core/port/out"

	"github.com/go-pkgz/pool"
	"github.com/rs/zerolog"
)

const (
	// DefaultLookback selects outreach created within the last 7 days.
	DefaultLookback = 7 * 24 * time.Hour

	// DefaultFetchWorkers bounds how many conversations are checked
	// concurrently in one sweep.
	DefaultFetchWorkers = 4

	// perRecordTimeout bounds the remote work done for a single record.
	perRecordTimeout = 30 * time.Second

	// sweepLockTTL guards against a crashed sweep holding the lock forever.
	sweepLockTTL = 10 * time.Minute
)

// Service is the reply reconciliation loop. It selects eligible outreach
// records, fetches new replies per record, and merges them into record state,
// persisting each record before moving on.
type Service struct {
	outreachRepo out.OutreachRepository
	fetcher      *ReplyFetcher
	preview      *PreviewExtractor
	lock         out.SweepLock
	workers      int
	log          zerolog.Logger
}

func NewService(
	outreachRepo out.OutreachRepository,
	fetcher *ReplyFetcher,
	preview *PreviewExtractor,
	lock out.SweepLock,
	workers int,
	log zerolog.Logger,
) *Service {
	if workers <= 0 {
		workers = DefaultFetchWorkers
	}
	return &Service{
		outreachRepo: outreachRepo,
		fetcher:      fetcher,
		preview:      preview,
		lock:         lock,
		workers:      workers,
		log:          log.With().Str("component", "reply_sync").Logger(),
	}
}

// sweepCounters is shared by the pool workers of one sweep.
type sweepCounters struct {
	updated atomic.Int64
	failed  atomic.Int64
}

// recordWorker implements pool.Worker for per-record reply checks.
type recordWorker struct {
	svc      *Service
	counters *sweepCounters
}

func (w *recordWorker) Do(ctx context.Context, rec *domain.OutreachRecord) error {
	updated, err := w.svc.syncRecord(ctx, rec)
	if err != nil {
		// One record's failure never aborts the sweep.
		w.counters.failed.Add(1)
		w.svc.log.Error().Err(err).
			Str("outreach_id", rec.ID).
			Str("conversation_id", rec.ConversationID).
			Msg("reply check failed for record")
		return nil
	}
	if updated {
		w.counters.updated.Add(1)
	}
	return nil
}

// RunSweep implements portin.ReplySync. It returns an error only when the
// record store is unreachable or another sweep holds the lock; per-record
// failures are counted in the result.
func (s *Service) RunSweep(ctx context.Context, lookback time.Duration) (*portin.SweepResult, error) {
	if lookback <= 0 {
		lookback = DefaultLookback
	}

	release, acquired, err := s.lock.TryAcquire(ctx, sweepLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domain.ErrSweepInProgress
	}
	defer release()

	start := time.Now()
	records, err := s.outreachRepo.List(ctx, out.OutreachFilter{
		Method:            domain.MethodEmail,
		HasConversationID: true,
		CreatedAfter:      time.Now().UTC().Add(-lookback),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("records", len(records)).Dur("lookback", lookback).Msg("starting reply sweep")

	counters := &sweepCounters{}
	worker := &recordWorker{svc: s, counters: counters}

	// In-flight records run on a detached context so they can finish and
	// persist after the sweep deadline; the deadline only stops new launches.
	workCtx := context.WithoutCancel(ctx)
	group := pool.New[*domain.OutreachRecord](s.workers, worker).WithContinueOnError()
	if err := group.Go(workCtx); err != nil {
		return nil, err
	}

	checked := 0
	for _, rec := range records {
		if ctx.Err() != nil {
			s.log.Warn().Int("remaining", len(records)-checked).Msg("sweep deadline reached, not launching further checks")
			break
		}
		group.Submit(rec)
		checked++
	}

	if err := group.Close(workCtx); err != nil {
		s.log.Warn().Err(err).Msg("worker group reported errors")
	}

	result := &portin.SweepResult{
		RecordsChecked: checked,
		RecordsUpdated: int(counters.updated.Load()),
		RecordsFailed:  int(counters.failed.Load()),
	}
	s.log.Info().
		Int("checked", result.RecordsChecked).
		Int("updated", result.RecordsUpdated).
		Int("failed", result.RecordsFailed).
		Dur("took", time.Since(start)).
		Msg("reply sweep complete")

	return result, nil
}

// syncRecord checks one record's conversation and merges any new replies.
// Returns whether the record was updated.
func (s *Service) syncRecord(ctx context.Context, rec *domain.OutreachRecord) (bool, error) {
	if !rec.EligibleForReplyCheck() {
		return false, nil
	}

	opCtx, cancel := context.WithTimeout(ctx, perRecordTimeout)
	defer cancel()

	replies, err := s.fetcher.FetchNewReplies(opCtx, rec.ConversationID, rec.CreatedAt, rec.LastReplyDate)
	if err != nil {
		return false, err
	}
	if len(replies) == 0 {
		return false, nil
	}

	// The newest reply drives the merge; earlier ones in the same batch only
	// bump the count.
	latest := replies[len(replies)-1]
	preview := s.preview.Extract(opCtx, latest.ID)

	rec.MarkReplyReceived(latest.SenderEmail, preview, latest.ReceivedAt)
	rec.AddReplyCount(len(replies) - 1)

	// Persist before moving on so a crash mid-sweep loses at most one
	// record's progress.
	if err := s.outreachRepo.Update(opCtx, rec); err != nil {
		return false, err
	}

	s.log.Info().
		Str("outreach_id", rec.ID).
		Int("new_replies", len(replies)).
		Str("sender", latest.SenderEmail).
		Time("last_reply", latest.ReceivedAt).
		Msg("merged new replies")

	return true, nil
}

// MarkRead implements portin.ReplySync.
func (s *Service) MarkRead(ctx context.Context, outreachID string) error {
	return s.transition(ctx, outreachID, (*domain.OutreachRecord).MarkRead)
}

// MarkResponded implements portin.ReplySync.
func (s *Service) MarkResponded(ctx context.Context, outreachID string) error {
	return s.transition(ctx, outreachID, (*domain.OutreachRecord).MarkResponded)
}

func (s *Service) transition(ctx context.Context, outreachID string, apply func(*domain.OutreachRecord) error) error {
	rec, err := s.outreachRepo.GetByID(ctx, outreachID)
	if err != nil {
		return err
	}
	if rec == nil {
		return domain.ErrNotFound
	}
	if err := apply(rec); err != nil {
		return err
	}
	return s.outreachRepo.Update(ctx, rec)
}

var _ portin.ReplySync = (*Service)(nil)
