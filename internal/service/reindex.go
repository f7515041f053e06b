package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/utafrali/catalogsearch/internal/domain"
	"github.com/utafrali/catalogsearch/internal/index"
	apperrors "github.com/utafrali/catalogsearch/pkg/errors"
	"github.com/utafrali/catalogsearch/pkg/health"
)

// ErrNoSource is returned by Reindex when no catalog source is configured.
var ErrNoSource = errors.New("no catalog source configured")

// ReindexResult summarizes one full reindex.
type ReindexResult struct {
	Source   string        `json:"source"`
	Indexed  int           `json:"indexed"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration_ns"`
	Shared   bool          `json:"-"`
}

// Reindex fetches the full catalog from the configured source and rebuilds
// the index from it. Concurrent calls share one fetch and build. On a fetch
// error the current index is kept untouched.
func (s *SearchService) Reindex(ctx context.Context) (ReindexResult, error) {
	if s.source == nil {
		return ReindexResult{}, apperrors.ServiceUnavailable("reindex unavailable", ErrNoSource)
	}

	ch := s.group.DoChan("reindex", func() (any, error) {
		// Detached from the first caller so its cancellation does not abort
		// the build other callers are waiting on.
		return s.reindex(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return ReindexResult{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return ReindexResult{}, r.Err
		}
		res := r.Val.(ReindexResult)
		res.Shared = r.Shared
		return res, nil
	}
}

// ReindexAsync starts a Reindex bounded by timeout and returns without
// waiting for it. Values carried by ctx, such as the correlation id, reach
// the rebuild; its cancellation does not. Wait blocks until every rebuild
// started here has finished.
func (s *SearchService) ReindexAsync(ctx context.Context, timeout time.Duration) error {
	if s.source == nil {
		return apperrors.ServiceUnavailable("reindex unavailable", ErrNoSource)
	}

	detached := context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(detached, timeout)
		defer cancel()

		if _, err := s.Reindex(ctx); err != nil {
			s.logger.ErrorContext(ctx, "background reindex failed", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Wait blocks until the rebuilds started by ReindexAsync have finished or
// ctx is done. Callers stop accepting new ReindexAsync calls first.
func (s *SearchService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for background reindex: %w", ctx.Err())
	}
}

func (s *SearchService) reindex(ctx context.Context) (ReindexResult, error) {
	ctx, span := s.tracer.Start(ctx, "SearchService.Reindex")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.source", s.source.Name()))

	records, err := s.source.FetchAll(ctx)
	if err != nil {
		reindexTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "reindex failed, keeping current index",
			slog.String("source", s.source.Name()),
			slog.String("error", err.Error()),
		)
		return ReindexResult{}, apperrors.ServiceUnavailable(
			fmt.Sprintf("fetch catalog from %s", s.source.Name()), err)
	}

	built := s.Build(ctx, records)
	reindexTotal.WithLabelValues("success").Inc()
	span.SetAttributes(
		attribute.Int("index.indexed", built.Indexed),
		attribute.Int("index.skipped", built.Skipped),
	)

	return ReindexResult{
		Source:   s.source.Name(),
		Indexed:  built.Indexed,
		Skipped:  built.Skipped,
		Duration: built.Duration,
	}, nil
}

// Build replaces the index contents with records and records build metrics.
// Building from no records leaves an empty but initialized index.
func (s *SearchService) Build(ctx context.Context, records []domain.Product) index.BuildResult {
	res := s.idx.BuildIndex(records)

	indexBuildDuration.Observe(res.Duration.Seconds())
	indexSkippedRecords.Add(float64(res.Skipped))
	s.recordIndexSize()

	s.logger.InfoContext(ctx, "index rebuilt",
		slog.Int("indexed", res.Indexed),
		slog.Int("skipped", res.Skipped),
		slog.Duration("duration", res.Duration),
	)
	return res
}

// HasSource reports whether Reindex can run.
func (s *SearchService) HasSource() bool {
	return s.source != nil
}

// Ready reports whether the index has been built at least once.
func (s *SearchService) Ready(_ context.Context) error {
	if !s.idx.Stats().IsInitialized {
		return fmt.Errorf("search index not built yet: %w", health.ErrNotReady)
	}
	return nil
}
