package store

import (
	"context"
	"log/slog"
	"sync"

	"animap/internal/logging"
)

// AsyncWriter runs cache writes on detached goroutines. Failures are logged,
// never returned to the caller that triggered the write.
type AsyncWriter struct {
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewAsyncWriter builds a writer that logs through logger.
func NewAsyncWriter(logger *slog.Logger) *AsyncWriter {
	return &AsyncWriter{logger: logging.NewComponentLogger(logger, "cache_writer")}
}

// Go schedules write. The write keeps ctx's values but not its cancellation.
func (w *AsyncWriter) Go(ctx context.Context, operation string, write func(context.Context) error) {
	if ctx == nil {
		ctx = context.Background()
	}
	detached := context.WithoutCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := write(detached); err != nil {
			logging.WarnWithContext(logging.WithContext(detached, w.logger), "cache write failed", "cache_write_failed",
				logging.String("operation", operation),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the cache path and disk space"),
				logging.String(logging.FieldImpact, "the next request refetches from upstream"),
			)
			return
		}
		w.logger.Debug("cache write complete", logging.String("operation", operation))
	}()
}

// Wait blocks until every scheduled write has finished.
func (w *AsyncWriter) Wait() {
	w.wg.Wait()
}
