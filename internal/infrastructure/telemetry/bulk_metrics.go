package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BulkMetrics records bulk submission and replay activity.
// A nil *BulkMetrics is valid and records nothing.
type BulkMetrics struct {
	logger *zap.Logger

	submissionsTotal *Counter
	submittedKeys    *Counter
	rejectedTotal    *Counter
	runsCompleted    *Counter
	runsAborted      *Counter
	duplicateReplays *Counter
	changeRecords    *Counter
	runRecordCount   *Histogram
}

// BulkMetricsConfig holds configuration for bulk metrics.
type BulkMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewBulkMetrics creates a new BulkMetrics instance.
func NewBulkMetrics(cfg BulkMetricsConfig) (*BulkMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BulkMetrics{logger: logger}

	counters := []struct {
		dst         **Counter
		name        string
		description string
		unit        string
	}{
		{&bm.submissionsTotal, "bulk_submissions_total", "Total number of accepted bulk submissions", "{submissions}"},
		{&bm.submittedKeys, "bulk_submitted_keys_total", "Total number of record keys submitted for bulk processing", "{keys}"},
		{&bm.rejectedTotal, "bulk_submissions_rejected_total", "Total number of rejected bulk submissions", "{submissions}"},
		{&bm.runsCompleted, "bulk_runs_completed_total", "Total number of bulk runs that committed", "{runs}"},
		{&bm.runsAborted, "bulk_runs_aborted_total", "Total number of bulk runs rolled back", "{runs}"},
		{&bm.duplicateReplays, "bulk_replays_duplicate_total", "Total number of redelivered replay jobs skipped", "{jobs}"},
		{&bm.changeRecords, "bulk_change_records_total", "Total number of change records written by committed runs", "{records}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	bm.runRecordCount, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "bulk_run_records",
		Description: "Number of records processed per committed bulk run",
		Unit:        "{records}",
		Boundaries:  RunSizeBuckets,
	})
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordSubmission records an accepted submission of keys records
func (bm *BulkMetrics) RecordSubmission(ctx context.Context, actionType string, keys int) {
	if bm == nil {
		return
	}
	bm.submissionsTotal.Inc(ctx, AttrActionType.String(actionType))
	bm.submittedKeys.Add(ctx, int64(keys), AttrActionType.String(actionType))
}

// RecordRejected records a submission refused synchronously
func (bm *BulkMetrics) RecordRejected(ctx context.Context, actionType, reason string) {
	if bm == nil {
		return
	}
	bm.rejectedTotal.Inc(ctx, AttrActionType.String(actionType), AttrRejectReason.String(reason))
}

// RecordRunCompleted records a committed run and its outcomes
func (bm *BulkMetrics) RecordRunCompleted(ctx context.Context, actionType string, succeeded, failed int) {
	if bm == nil {
		return
	}
	bm.runsCompleted.Inc(ctx, AttrActionType.String(actionType))
	bm.changeRecords.Add(ctx, int64(succeeded), AttrActionType.String(actionType), AttrOutcome.String("succeeded"))
	bm.changeRecords.Add(ctx, int64(failed), AttrActionType.String(actionType), AttrOutcome.String("failed"))
	bm.runRecordCount.Record(ctx, float64(succeeded+failed), AttrActionType.String(actionType))
}

// RecordRunAborted records a rolled back run
func (bm *BulkMetrics) RecordRunAborted(ctx context.Context, actionType string) {
	if bm == nil {
		return
	}
	bm.runsAborted.Inc(ctx, AttrActionType.String(actionType))
}

// RecordDuplicate records a skipped redelivery
func (bm *BulkMetrics) RecordDuplicate(ctx context.Context, actionType string) {
	if bm == nil {
		return
	}
	bm.duplicateReplays.Inc(ctx, AttrActionType.String(actionType))
}

// JobMetrics records job queue activity. A nil *JobMetrics records nothing.
type JobMetrics struct {
	processed *Counter
	retried   *Counter
	dead      *Counter
	duration  *Histogram
}

// NewJobMetrics creates job queue metrics on meter
func NewJobMetrics(meter metric.Meter) (*JobMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	var (
		jm  JobMetrics
		err error
	)
	if jm.processed, err = NewCounter(meter, "jobs_processed_total", "Total number of jobs processed", "{jobs}"); err != nil {
		return nil, err
	}
	if jm.retried, err = NewCounter(meter, "jobs_retried_total", "Total number of job retries", "{jobs}"); err != nil {
		return nil, err
	}
	if jm.dead, err = NewCounter(meter, "jobs_dead_lettered_total", "Total number of jobs moved to the dead letter list", "{jobs}"); err != nil {
		return nil, err
	}
	jm.duration, err = NewHistogram(meter, HistogramOpts{
		Name:        "job_duration_seconds",
		Description: "Job handler duration",
		Unit:        "s",
		Boundaries:  JobDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	return &jm, nil
}

// RecordProcessed records one handler invocation
func (jm *JobMetrics) RecordProcessed(ctx context.Context, jobName string, d time.Duration, err error) {
	if jm == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := []attribute.KeyValue{AttrJobName.String(jobName), AttrJobStatus.String(status)}
	jm.processed.Inc(ctx, attrs...)
	jm.duration.RecordDuration(ctx, d, attrs...)
}

// RecordRetry records a retry of jobName
func (jm *JobMetrics) RecordRetry(ctx context.Context, jobName string) {
	if jm == nil {
		return
	}
	jm.retried.Inc(ctx, AttrJobName.String(jobName))
}

// RecordDeadLetter records a job given up on
func (jm *JobMetrics) RecordDeadLetter(ctx context.Context, jobName string) {
	if jm == nil {
		return
	}
	jm.dead.Inc(ctx, AttrJobName.String(jobName))
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBulkMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
