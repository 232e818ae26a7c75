package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"animap/internal/logging"
	"animap/internal/media"
	"animap/internal/services"
)

// CrawlOptions bounds a crawl.
type CrawlOptions struct {
	// Limit stops after this many ids; zero crawls everything.
	Limit int
	// Progress is called after each id with the number processed so far.
	Progress func(done, total int)
}

// CrawlReport summarizes a crawl.
type CrawlReport struct {
	Total    int
	Resolved int
	Skipped  int
	Missing  int
	Failed   int
}

// Crawl enumerates every catalog id of mediaType and resolves the ones not
// yet cached. Per-id catalog failures are logged and skipped. Only one crawl
// may run against a data directory at a time.
func (s *Service) Crawl(ctx context.Context, mediaType media.Type, opts CrawlOptions) (CrawlReport, error) {
	var report CrawlReport

	var enumerate func(context.Context) ([]string, error)
	switch mediaType {
	case media.Anime:
		enumerate = s.catalog.AnimeIDs
	case media.Manga:
		enumerate = s.catalog.MangaIDs
	default:
		return report, services.Wrap(services.ErrUnknownMediaType, "aggregator", "crawl", fmt.Sprintf("media type %q", mediaType), nil)
	}

	lockPath := s.cfg.CrawlLockPath()
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return report, fmt.Errorf("acquire crawl lock: %w", err)
	}
	if !ok {
		return report, services.Wrap(services.ErrValidation, "aggregator", "crawl", "another crawl is already running against "+lockPath, nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release crawl lock", logging.Error(err))
		}
	}()

	ctx = services.WithMediaType(ctx, string(mediaType))
	logger := logging.WithContext(ctx, s.logger)

	ids, err := enumerate(ctx)
	if err != nil {
		return report, err
	}
	if opts.Limit > 0 && len(ids) > opts.Limit {
		ids = ids[:opts.Limit]
	}
	report.Total = len(ids)
	logger.Info("crawl started", logging.Int("ids", report.Total), logging.String("lock", lockPath))

	for i, raw := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		s.crawlOne(ctx, strings.TrimSpace(raw), mediaType, &report)
		if opts.Progress != nil {
			opts.Progress(i+1, report.Total)
		}
	}

	logger.Info("crawl finished",
		logging.Int("resolved", report.Resolved),
		logging.Int("skipped", report.Skipped),
		logging.Int("missing", report.Missing),
		logging.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *Service) crawlOne(ctx context.Context, raw string, mediaType media.Type, report *CrawlReport) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		report.Failed++
		s.logger.Debug("skipping malformed catalog id", logging.String("id", raw))
		return
	}
	ctx, logger := s.scoped(ctx, id, mediaType)

	if cached, err := s.store.GetRecord(ctx, id, mediaType); err == nil && cached != nil {
		report.Skipped++
		return
	}

	rec, err := s.Info(ctx, id, mediaType)
	switch {
	case err != nil && errors.Is(err, context.Canceled):
		report.Failed++
	case err != nil:
		report.Failed++
		logging.WarnWithContext(logger, "crawl lookup failed", "crawl_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "rerun the crawl later; cached ids are skipped"),
			logging.String(logging.FieldImpact, "id left uncached"),
		)
	case rec == nil:
		report.Missing++
	default:
		report.Resolved++
	}
}
