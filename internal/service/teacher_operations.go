package service

import (
	"bytes"
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/teachers-admin/internal/client"
	"github.com/noah-isme/teachers-admin/internal/models"
)

// StagedFile is an attachment selected in the creation form but not yet uploaded.
type StagedFile struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Content     []byte `json:"-"`
}

func (f StagedFile) clientFile() client.File {
	return client.File{
		Name:        f.Name,
		ContentType: f.ContentType,
		Size:        f.Size,
		Content:     bytes.NewReader(f.Content),
	}
}

// TeacherOperations is the read state and the write mutations backing one listing view or
// one form submission.
type TeacherOperations struct {
	teachers  *TeacherService
	notifier  Notifier
	metrics   *MetricsService
	logger    *zap.Logger
	onSuccess func(ctx context.Context, teacher *models.Teacher)

	mu       sync.RWMutex
	query    models.PageQuery
	loaded   bool
	page     *models.TeacherPage
	loading  bool
	err      error
	cacheHit bool

	UploadImage   *Mutation[StagedFile, string]
	UploadPDF     *Mutation[StagedFile, string]
	CreateTeacher *Mutation[models.TeacherCreateInput, *models.Teacher]
}

// OperationsOption customises TeacherOperations.
type OperationsOption func(*TeacherOperations)

// WithNotifier routes success and failure notices.
func WithNotifier(n Notifier) OperationsOption {
	return func(o *TeacherOperations) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithOnSuccess registers a callback fired after a teacher is created.
func WithOnSuccess(fn func(ctx context.Context, teacher *models.Teacher)) OperationsOption {
	return func(o *TeacherOperations) { o.onSuccess = fn }
}

// WithOperationsMetrics records upload outcomes.
func WithOperationsMetrics(m *MetricsService) OperationsOption {
	return func(o *TeacherOperations) { o.metrics = m }
}

// WithOperationsLogger sets the logger.
func WithOperationsLogger(l *zap.Logger) OperationsOption {
	return func(o *TeacherOperations) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewTeacherOperations wires the listing read and the mutations over teachers.
func NewTeacherOperations(teachers *TeacherService, query models.PageQuery, opts ...OperationsOption) *TeacherOperations {
	o := &TeacherOperations{
		teachers: teachers,
		notifier: nopNotifier{},
		logger:   zap.NewNop(),
		query:    query.Normalize(),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.UploadImage = NewMutation(o.uploader(client.UploadImage), MutationHooks[StagedFile, string]{
		OnError: func(ctx context.Context, in StagedFile, err error) {
			o.fail(MsgImageUploadFailed, err, zap.String("file", in.Name))
		},
	})
	o.UploadPDF = NewMutation(o.uploader(client.UploadPDF), MutationHooks[StagedFile, string]{
		OnError: func(ctx context.Context, in StagedFile, err error) {
			o.fail(MsgPDFUploadFailed, err, zap.String("file", in.Name))
		},
	})
	o.CreateTeacher = NewMutation(o.teachers.Create, MutationHooks[models.TeacherCreateInput, *models.Teacher]{
		OnSuccess: o.created,
		OnError: func(ctx context.Context, in models.TeacherCreateInput, err error) {
			o.fail(MsgCreateFailed, err, zap.String("email", in.Email))
		},
	})
	return o
}

func (o *TeacherOperations) uploader(kind client.UploadKind) func(context.Context, StagedFile) (string, error) {
	return func(ctx context.Context, f StagedFile) (string, error) {
		url, err := o.teachers.Upload(ctx, kind, f.clientFile())
		if err != nil {
			o.metrics.RecordUpload(string(kind), "failed")
			return "", err
		}
		o.metrics.RecordUpload(string(kind), "ok")
		return url, nil
	}
}

func (o *TeacherOperations) created(ctx context.Context, _ models.TeacherCreateInput, teacher *models.Teacher) {
	o.notifier.Success(MsgCreateSucceeded)
	if err := o.teachers.InvalidateListings(ctx); err != nil {
		o.logger.Warn("invalidate teachers listing", zap.Error(err))
	}
	o.mu.Lock()
	o.loaded = false
	o.mu.Unlock()
	if o.onSuccess != nil {
		o.onSuccess(ctx, teacher)
	}
}

func (o *TeacherOperations) fail(fallback string, err error, fields ...zap.Field) {
	message := client.BackendMessage(err)
	if message == "" {
		message = fallback
	}
	o.logger.Error("teacher mutation failed", append(fields, zap.String("notice", message), zap.Error(err))...)
	o.notifier.Error(message)
}

// SetQuery changes the listing query and reloads when it differs from the current one.
func (o *TeacherOperations) SetQuery(ctx context.Context, query models.PageQuery) error {
	query = query.Normalize()
	o.mu.Lock()
	changed := query != o.query || !o.loaded
	o.query = query
	o.mu.Unlock()
	if !changed {
		return nil
	}
	return o.Load(ctx)
}

// Load fetches the listing for the current query.
func (o *TeacherOperations) Load(ctx context.Context) error {
	o.mu.Lock()
	query := o.query
	o.loading = true
	o.mu.Unlock()

	page, hit, err := o.teachers.List(ctx, query)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.loading = false
	o.err = err
	if err != nil {
		o.page = nil
		o.cacheHit = false
		return err
	}
	o.loaded = true
	o.page = page
	o.cacheHit = hit
	return nil
}

// Query returns the normalized listing query.
func (o *TeacherOperations) Query() models.PageQuery {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.query
}

// Teachers returns the current page, empty until loaded.
func (o *TeacherOperations) Teachers() []models.Teacher {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.page == nil || o.page.Body == nil {
		return []models.Teacher{}
	}
	return o.page.Body
}

func (o *TeacherOperations) Total() int64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.page == nil {
		return 0
	}
	return o.page.TotalElements
}

func (o *TeacherOperations) Page() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.page == nil {
		return 0
	}
	return o.page.Page
}

func (o *TeacherOperations) Size() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.page == nil || o.page.Size <= 0 {
		return models.DefaultPageSize
	}
	return o.page.Size
}

func (o *TeacherOperations) TotalPages() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.page == nil || o.page.TotalPage <= 0 {
		return 1
	}
	return o.page.TotalPage
}

func (o *TeacherOperations) IsLoading() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.loading
}

func (o *TeacherOperations) Err() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.err
}

func (o *TeacherOperations) CacheHit() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.cacheHit
}
