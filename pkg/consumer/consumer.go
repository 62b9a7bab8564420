package consumer

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/trussle/relay/pkg/checkpoint"
	"github.com/trussle/relay/pkg/dedup"
	"github.com/trussle/relay/pkg/dlq"
	"github.com/trussle/relay/pkg/event"
	"github.com/trussle/relay/pkg/metrics"
	"github.com/trussle/relay/pkg/models"
	"github.com/trussle/relay/pkg/queue"
	"github.com/trussle/relay/pkg/retry"
	"github.com/trussle/relay/pkg/semaphore"
	"github.com/trussle/uuid"
)

// Report is the partial-success summary of one batch. The host retries only
// the identified records.
type Report struct {
	FailedSequences []string
}

// Consumer turns an ordered batch of at-least-once-delivered records into a
// partial-success report. Per-record failures never fail the batch: records
// that exhaust their attempts are routed to the dead-letter sink and
// reported back by sequence number. It's also implemented as a state
// machine around a source queue: gather a batch, process, commit, and
// repeat.
type Consumer struct {
	mutex            sync.Mutex
	queue            queue.Queue
	sem              *semaphore.Semaphore
	tracker          dedup.Tracker
	checkpoints      checkpoint.Store
	router           dlq.Router
	executor         *retry.Executor
	validator        event.Validator
	registry         *event.Registry
	stop             chan chan struct{}
	consumedRecords  metrics.Counter
	processedRecords metrics.Counter
	skippedRecords   metrics.Counter
	failedRecords    metrics.Counter
	deadLetters      metrics.Counter
	checkpointSaves  metrics.Counter
	rnd              *rand.Rand
	now              func() time.Time
	logger           log.Logger
}

// New creates a consumer.
func New(
	q queue.Queue,
	sem *semaphore.Semaphore,
	tracker dedup.Tracker,
	checkpoints checkpoint.Store,
	router dlq.Router,
	executor *retry.Executor,
	validator event.Validator,
	registry *event.Registry,
	consumedRecords, processedRecords metrics.Counter,
	skippedRecords, failedRecords metrics.Counter,
	deadLetters, checkpointSaves metrics.Counter,
	logger log.Logger,
) *Consumer {
	return &Consumer{
		mutex:            sync.Mutex{},
		queue:            q,
		sem:              sem,
		tracker:          tracker,
		checkpoints:      checkpoints,
		router:           router,
		executor:         executor,
		validator:        validator,
		registry:         registry,
		stop:             make(chan chan struct{}),
		consumedRecords:  consumedRecords,
		processedRecords: processedRecords,
		skippedRecords:   skippedRecords,
		failedRecords:    failedRecords,
		deadLetters:      deadLetters,
		checkpointSaves:  checkpointSaves,
		rnd:              rand.New(rand.NewSource(time.Now().UnixNano())),
		now:              time.Now,
		logger:           logger,
	}
}

// Run gathers batches from the queue, processes them, and commits the
// records the report does not name as failed. Run returns when Stop is
// invoked.
func (c *Consumer) Run() {
	step := time.NewTicker(100 * time.Millisecond)
	defer step.Stop()

	state := c.gather
	for {
		select {
		case <-step.C:
			state = state()

		case q := <-c.stop:
			close(q)
			return
		}
	}
}

// Stop the consumer from consuming.
func (c *Consumer) Stop() {
	q := make(chan struct{})
	c.stop <- q
	<-q
}

// stateFn is a lazy chaining mechism, similar to a trampoline, but via
// calls through Run.
type stateFn func() stateFn

func (c *Consumer) gather() stateFn {
	warn := level.Warn(log.With(c.logger, "state", "gather"))

	records, err := c.queue.Dequeue()
	if err != nil {
		// Normal, when the source has no more records to give right now.
		warn.Log("reason", "dequeuing", "err", err)
		return c.gather
	}
	if records.Len() == 0 {
		return c.gather
	}

	return func() stateFn {
		return c.process(records)
	}
}

func (c *Consumer) process(records models.Records) stateFn {
	warn := level.Warn(log.With(c.logger, "state", "process"))

	report, err := c.ProcessBatch(records)
	if err != nil {
		warn.Log("err", err)
		if _, ferr := c.queue.Failed(records); ferr != nil {
			warn.Log("reason", "failing batch", "err", ferr)
		}
		return c.gather
	}

	failed := make(map[string]struct{}, len(report.FailedSequences))
	for _, sequence := range report.FailedSequences {
		failed[sequence] = struct{}{}
	}

	var commit, release models.Records
	for _, rec := range records {
		if _, ok := failed[rec.SequenceNumber]; ok {
			release.Append(rec)
			continue
		}
		commit.Append(rec)
	}

	if commit.Len() > 0 {
		if _, err := c.queue.Commit(commit); err != nil {
			warn.Log("reason", "committing", "err", err)
		}
	}
	if release.Len() > 0 {
		// Left on the queue; the host redelivers them after the
		// visibility timeout.
		if _, err := c.queue.Failed(release); err != nil {
			warn.Log("reason", "releasing", "err", err)
		}
	}

	return c.gather
}

// ProcessBatch dispatches every record through the concurrency limiter,
// partitions the outcomes, routes failures to the dead-letter sink, and
// saves a checkpoint from the last record in input order that succeeded.
// It never returns an error for individual-record failures.
func (c *Consumer) ProcessBatch(records models.Records) (Report, error) {
	if records.Len() == 0 {
		return Report{}, nil
	}

	c.consumedRecords.Add(float64(records.Len()))

	outcomes := make(models.Outcomes, records.Len())

	var wg sync.WaitGroup
	for k, rec := range records {
		// Acquiring before the spawn keeps admission strictly in input
		// order.
		c.sem.Acquire()
		wg.Add(1)

		go func(k int, rec models.Record) {
			defer wg.Done()
			defer c.sem.Release()

			outcomes[k] = c.processOne(rec)
		}(k, rec)
	}
	wg.Wait()

	successes, failures := outcomes.Partition()
	c.count(successes)

	if len(failures) > 0 {
		c.failedRecords.Add(float64(len(failures)))
		c.deadLetter(failures)
	}
	if len(successes) > 0 {
		c.checkpointBatch(outcomes)
	}

	return Report{FailedSequences: failures.Sequences()}, nil
}

func (c *Consumer) processOne(rec models.Record) models.Outcome {
	correlationID := c.correlationID(rec)

	var (
		base = log.With(c.logger,
			"sequence", rec.SequenceNumber,
			"correlation", correlationID,
		)
		warn = level.Warn(base)
	)

	skip := func(reason string, err error) models.Outcome {
		warn.Log("state", "skip", "reason", reason, "err", err)
		return models.Outcome{
			Record:        rec,
			Success:       true,
			Kind:          models.Skipped,
			Err:           err,
			CorrelationID: correlationID,
		}
	}

	ev, err := event.Decode(rec.Body)
	if err != nil {
		// Redelivery can not fix an unparseable body; swallowed so the
		// host does not loop on it forever.
		return skip("decode", err)
	}

	key, keyed := ev.DedupKey()
	if keyed && !c.tracker.CheckAndMark(key, ev.UserID) {
		return skip("duplicate", nil)
	}

	if err := c.validator.Validate(ev); err != nil {
		// Unmark so a corrected resend of the same id is not suppressed.
		if keyed {
			c.tracker.Unmark(key)
		}
		return skip("validation", err)
	}

	processor, found := c.registry.Find(ev.Type)
	if !found {
		return skip("no processor", nil)
	}

	firstAttempt := c.now()
	attempts, err := c.executor.Execute(func() error {
		return processor.Process(ev.Data, ev.Type)
	})
	lastAttempt := c.now()

	if err != nil {
		kind := retry.KindOf(err)
		if kind == models.Skipped {
			return skip("processor", err)
		}
		if kind == models.Retryable {
			// Exhausted its attempt budget.
			kind = models.Terminal
		}

		if keyed {
			c.tracker.Unmark(key)
		}
		warn.Log("state", "failed", "kind", kind, "attempts", attempts, "err", err)
		return models.Outcome{
			Record:        rec,
			Success:       false,
			Kind:          kind,
			Err:           err,
			Attempts:      attempts,
			FirstAttempt:  firstAttempt,
			LastAttempt:   lastAttempt,
			CorrelationID: correlationID,
		}
	}

	return models.Outcome{
		Record:        rec,
		Success:       true,
		Attempts:      attempts,
		FirstAttempt:  firstAttempt,
		LastAttempt:   lastAttempt,
		CorrelationID: correlationID,
	}
}

// correlationID derives an identifier for log and dead-letter correlation.
// It is deterministic over (arrival time, sequence number) so redeliveries
// correlate; records missing either get a random one.
func (c *Consumer) correlationID(rec models.Record) string {
	if rec.SequenceNumber != "" && !rec.Timestamp.IsZero() {
		sum := sha1.Sum([]byte(fmt.Sprintf("%d:%s", rec.Timestamp.UnixNano(), rec.SequenceNumber)))
		return hex.EncodeToString(sum[:])
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	return uuid.MustNewWithRand(c.rnd).String()
}

func (c *Consumer) deadLetter(failures models.Outcomes) {
	letters := make(models.DeadLetters, len(failures))
	for k, outcome := range failures {
		var message string
		if outcome.Err != nil {
			message = outcome.Err.Error()
		}
		letters[k] = models.DeadLetter{
			Record: outcome.Record,
			Error: models.DeadLetterError{
				Message: message,
				Kind:    outcome.Kind,
			},
			Attempts:      outcome.Attempts,
			FirstAttempt:  outcome.FirstAttempt,
			LastAttempt:   outcome.LastAttempt,
			CorrelationID: outcome.CorrelationID,
		}
	}

	res, err := c.router.SendBatch(letters)
	if err != nil {
		level.Warn(c.logger).Log("state", "dead-letter", "err", err)
		return
	}
	c.deadLetters.Add(float64(res.Success))
	if res.Failure > 0 {
		level.Warn(c.logger).Log("state", "dead-letter", "failed", res.Failure)
	}
}

// checkpointBatch saves the position of the last record in original input
// order that succeeded. This assumes in-order delivery where only a
// trailing suffix of the batch fails; when a record earlier in the batch
// failed, the gap is flagged rather than corrected.
func (c *Consumer) checkpointBatch(outcomes models.Outcomes) {
	warn := level.Warn(log.With(c.logger, "state", "checkpoint"))

	last := -1
	firstFailure := -1
	for k, outcome := range outcomes {
		if outcome.Success {
			last = k
		} else if firstFailure < 0 {
			firstFailure = k
		}
	}
	if last < 0 {
		return
	}
	if firstFailure >= 0 && firstFailure < last {
		warn.Log("reason", "gap",
			"position", outcomes[last].Record.SequenceNumber,
			"failed", outcomes[firstFailure].Record.SequenceNumber,
		)
	}

	var (
		rec       = outcomes[last].Record
		successes = 0
	)
	for _, outcome := range outcomes {
		if outcome.Success {
			successes++
		}
	}

	err := c.checkpoints.Save(models.Checkpoint{
		Partition:   rec.ShardID,
		Position:    rec.SequenceNumber,
		Timestamp:   c.now(),
		RecordCount: successes,
	})
	if err != nil {
		// A lost checkpoint only risks reprocessing, which the dedup
		// layer mitigates.
		warn.Log("reason", "saving", "err", err)
		return
	}
	c.checkpointSaves.Inc()
}

func (c *Consumer) count(successes models.Outcomes) {
	for _, outcome := range successes {
		if outcome.Attempts > 0 {
			c.processedRecords.Inc()
		} else {
			c.skippedRecords.Inc()
		}
	}
}
