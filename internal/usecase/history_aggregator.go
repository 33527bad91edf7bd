package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/infrastructure/metrics"
)

// SinkError is the failure of one history sink.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("history sink %s: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// PartialWriteError reports which sinks failed while the others accepted the record.
type PartialWriteError struct {
	RecordID  string
	Succeeded []string
	Failures  []*SinkError
}

func (e *PartialWriteError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Sink)
	}
	return fmt.Sprintf("history record %s: %d of %d sinks failed (%s)",
		e.RecordID, len(e.Failures), len(e.Failures)+len(e.Succeeded), strings.Join(names, ", "))
}

// Unwrap exposes every sink failure to errors.Is and errors.As.
func (e *PartialWriteError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// HistoryAggregator writes every balance change record to all configured sinks in order.
// A failing sink does not stop the remaining ones.
type HistoryAggregator struct {
	sinks   []HistorySink
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewHistoryAggregator creates a new HistoryAggregator.
func NewHistoryAggregator(logger zerolog.Logger, m *metrics.Metrics, sinks ...HistorySink) *HistoryAggregator {
	return &HistoryAggregator{
		sinks:   sinks,
		logger:  logger,
		metrics: m,
	}
}

// Write fans the record out. It returns *PartialWriteError when at least one sink failed.
func (a *HistoryAggregator) Write(ctx context.Context, record *domain.BalanceChange) error {
	var (
		succeeded []string
		failures  []*SinkError
	)

	for _, sink := range a.sinks {
		if err := sink.Write(ctx, record); err != nil {
			failures = append(failures, &SinkError{Sink: sink.Name(), Err: err})
			a.observe(sink.Name(), "failed")
			a.logger.Error().
				Err(err).
				Str("sink", sink.Name()).
				Str("operation_id", record.OperationID).
				Str("account_id", record.AccountID).
				Msg("history sink write failed")
			continue
		}
		succeeded = append(succeeded, sink.Name())
		a.observe(sink.Name(), "written")
	}

	if len(failures) == 0 {
		return nil
	}

	return &PartialWriteError{
		RecordID:  record.ID,
		Succeeded: succeeded,
		Failures:  failures,
	}
}

// Sinks returns the sink names in write order.
func (a *HistoryAggregator) Sinks() []string {
	names := make([]string, 0, len(a.sinks))
	for _, s := range a.sinks {
		names = append(names, s.Name())
	}
	return names
}

func (a *HistoryAggregator) observe(sink, result string) {
	if a.metrics != nil {
		a.metrics.HistoryWrites.WithLabelValues(sink, result).Inc()
	}
}

// IsPartialWrite reports whether err carries sink failures.
func IsPartialWrite(err error) bool {
	var partial *PartialWriteError
	return errors.As(err, &partial)
}
