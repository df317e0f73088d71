package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanjidex/kanjidex/pkg/analyze"
	"github.com/kanjidex/kanjidex/pkg/db"
	"github.com/kanjidex/kanjidex/pkg/exposure"
	"github.com/kanjidex/kanjidex/pkg/source"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Ingester feeds a source's text segments through kanji extraction and
// commits the exposure counts and source links, checkpointing per segment
// so an interrupted import resumes where it stopped.
type Ingester struct {
	DB        *sql.DB
	BatchSize int
	// FlushInterval bounds how long a committed segment can sit unflushed.
	FlushInterval time.Duration
	Log           zerolog.Logger
	// OnProgress is called periodically with the number of processed segments and the total.
	OnProgress func(current, total int)

	Workers int

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewIngester creates a new Ingester with default tuning.
func NewIngester(conn *sql.DB, log zerolog.Logger) *Ingester {
	return &Ingester{
		DB:            conn,
		BatchSize:     50,
		FlushInterval: 100 * time.Millisecond,
		Workers:       4,
		Log:           log,
	}
}

// processedSegment holds one scanned segment before its writes are committed.
type processedSegment struct {
	Index  int
	Chars  []string
	Counts map[string]int
	Error  error
}

// Ingest scans segments for kanji and commits the results using concurrent
// workers and batched writes. It resumes from the source's last checkpoint
// and returns the number of kanji occurrences linked.
func (ig *Ingester) Ingest(ctx context.Context, sourceID int64, segments []string) (int, error) {
	lastProcessed, err := source.Progress(ig.DB, sourceID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return 0, err
		}
		ig.Log.Warn().Err(err).Msg("failed to read import progress, starting over")
		lastProcessed = -1
	}
	if lastProcessed >= 0 {
		ig.Log.Info().Int("segment", lastProcessed+1).Msg("resuming import")
	}

	totalSegments := len(segments)
	startIdx := lastProcessed + 1
	if startIdx >= totalSegments {
		return 0, nil // nothing to do
	}

	var wp WorkerPoolInterface
	if ig.PoolFactory != nil {
		wp = ig.PoolFactory(ig.Workers, ig.Workers*2)
	} else {
		wp = NewWorkerPool(ig.Workers, ig.Workers*2)
	}
	resultCh := make(chan processedSegment, ig.Workers*2)
	closedResultCh := false

	doneCh := make(chan error, 1)

	var totalLinks int64

	// Async flush failures are logged as they happen; the first one also
	// comes back from bw.Close below.
	bw := NewBatchWriter(ig.DB, ig.BatchSize, ig.FlushInterval)
	bw.OnError = func(e error) {
		ig.Log.Error().Err(e).Msg("batch write failed")
	}

	// Clean up on every return path: stop workers, close resultCh, flush batches.
	defer func() {
		wp.Close()
		if !closedResultCh {
			close(resultCh)
		}
		_ = bw.Close()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wp.Start(ctx)

	// Consumer: reorder worker results back into segment order and submit
	// each segment's writes, so the progress checkpoint never skips ahead
	// of an uncommitted segment.
	go func() {
		defer close(doneCh)
		buffer := make(map[int]processedSegment)
		nextIdx := startIdx

		submitReady := func() error {
			for {
				item, ok := buffer[nextIdx]
				if !ok {
					return nil
				}
				delete(buffer, nextIdx)

				seg := item
				err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
					now := time.Now()
					for _, ch := range seg.Chars {
						if err := exposure.RecordEncounterTx(tx, ch, now); err != nil {
							return fmt.Errorf("failed to record encounter for %s: %w", ch, err)
						}
						if err := source.LinkKanji(tx, ch, sourceID, seg.Counts[ch]); err != nil {
							return fmt.Errorf("failed to link %s: %w", ch, err)
						}
						atomic.AddInt64(&totalLinks, int64(seg.Counts[ch]))
					}
					if err := source.SetProgress(tx, sourceID, seg.Index); err != nil {
						return fmt.Errorf("failed to save progress: %w", err)
					}
					return nil
				})
				if err != nil {
					return err
				}

				if ig.OnProgress != nil && (nextIdx+1)%ig.BatchSize == 0 {
					ig.OnProgress(nextIdx+1, totalSegments)
				}
				nextIdx++
			}
		}

		for {
			select {
			case <-ctx.Done():
				doneCh <- ctx.Err()
				return
			default:
			}

			res, ok := <-resultCh
			if !ok {
				if err := submitReady(); err != nil {
					cancel()
					doneCh <- err
					return
				}
				if ig.OnProgress != nil {
					ig.OnProgress(totalSegments, totalSegments)
				}
				doneCh <- nil
				return
			}
			if res.Error != nil {
				cancel()
				doneCh <- res.Error
				return
			}
			buffer[res.Index] = res
			if err := submitReady(); err != nil {
				cancel()
				doneCh <- err
				return
			}
		}
	}()

	// Producer: submit one scan job per remaining segment.
Loop:
	for i := startIdx; i < totalSegments; i++ {
		select {
		case <-ctx.Done():
			break Loop
		default:
		}

		idx := i
		text := segments[i]

		job := func(ctx context.Context) error {
			res := processSegment(idx, text)
			select {
			case resultCh <- res:
			case <-ctx.Done():
			}
			return nil
		}

		if err := wp.SubmitCtx(ctx, job); err != nil {
			if err == ctx.Err() {
				break Loop
			}
			if err == ErrPoolClosed {
				break Loop
			}
			return 0, err
		}
	}

	// Wait for in-flight jobs, then signal the consumer that no more
	// results will arrive.
	wp.Close()
	if !closedResultCh {
		close(resultCh)
		closedResultCh = true
	}

	consumerErr := <-doneCh

	// Close early to capture flush errors; the deferred close is a no-op then.
	if err := bw.Close(); err != nil && err != ErrBatchWriterClosed {
		if consumerErr == nil {
			consumerErr = err
		}
	}

	return int(atomic.LoadInt64(&totalLinks)), consumerErr
}

// processSegment does the CPU-bound part: scan the segment and tally each
// distinct kanji's occurrences.
func processSegment(index int, text string) processedSegment {
	scan := analyze.Scan(text)
	counts := make(map[string]int, len(scan.Unique))
	for _, occ := range scan.Occurrences {
		counts[occ.Character]++
	}
	return processedSegment{
		Index:  index,
		Chars:  scan.Unique,
		Counts: counts,
	}
}
