package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/teachers-admin/internal/models"
	"github.com/noah-isme/teachers-admin/pkg/jobs"
)

// ListingWarmer refills listing cache entries in the background after a write invalidated them.
type ListingWarmer struct {
	teachers *TeacherService
	queries  []models.PageQuery
	queue    *jobs.Queue[models.PageQuery]
	logger   *zap.Logger
}

// NewListingWarmer warms queries after every successful creation. With no queries it warms
// the first directory page.
func NewListingWarmer(teachers *TeacherService, queries []models.PageQuery, cfg jobs.QueueConfig) *ListingWarmer {
	if len(queries) == 0 {
		queries = []models.PageQuery{NewListingView().Query()}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	w := &ListingWarmer{teachers: teachers, queries: queries, logger: cfg.Logger}
	w.queue = jobs.NewQueue("listing-warmer", w.warm, cfg)
	return w
}

// Start launches the workers. Warming uses the service token since it runs outside any request.
func (w *ListingWarmer) Start(ctx context.Context) {
	w.queue.Start(ctx)
}

// Stop drains the workers.
func (w *ListingWarmer) Stop() {
	w.queue.Stop()
}

// Warm schedules every configured query. Its signature matches WithOnSuccess.
func (w *ListingWarmer) Warm(_ context.Context, _ *models.Teacher) {
	for _, q := range w.queries {
		q = q.Normalize()
		if err := w.queue.Enqueue(jobs.Job[models.PageQuery]{Key: teacherListCacheKey(q), Payload: q}); err != nil {
			w.logger.Debug("listing warm skipped", zap.Error(err))
		}
	}
}

func (w *ListingWarmer) warm(ctx context.Context, job jobs.Job[models.PageQuery]) error {
	_, hit, err := w.teachers.List(ctx, job.Payload)
	if err != nil {
		return err
	}
	w.logger.Debug("listing warmed", zap.String("key", job.Key), zap.Bool("already_cached", hit))
	return nil
}
