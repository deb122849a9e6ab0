package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/teachers-admin/internal/middleware"
	"github.com/noah-isme/teachers-admin/internal/models"
	"github.com/noah-isme/teachers-admin/internal/service"
	appErrors "github.com/noah-isme/teachers-admin/pkg/errors"
	"github.com/noah-isme/teachers-admin/pkg/response"
)

// TeacherHandler serves the teachers directory and the creation form.
//
// Listing state, notices and the form are built per request on top of the shared
// TeacherService, so concurrent operators never see each other's panel or notices.
type TeacherHandler struct {
	teachers    *service.TeacherService
	lookups     *service.LookupService
	exports     *service.ExportService
	metrics     *service.MetricsService
	notifier    service.Notifier
	uploadLimit int64
	warmer      *service.ListingWarmer
	logger      *zap.Logger
}

// TeacherHandlerOption customises a TeacherHandler.
type TeacherHandlerOption func(*TeacherHandler)

// WithListingWarmer refills the listing cache after each created teacher.
func WithListingWarmer(w *service.ListingWarmer) TeacherHandlerOption {
	return func(h *TeacherHandler) { h.warmer = w }
}

// NewTeacherHandler constructs a TeacherHandler.
func NewTeacherHandler(teachers *service.TeacherService, lookups *service.LookupService, exports *service.ExportService, metrics *service.MetricsService, uploadLimit int64, logger *zap.Logger, opts ...TeacherHandlerOption) *TeacherHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if uploadLimit <= 0 {
		uploadLimit = service.DefaultUploadLimit
	}
	h := &TeacherHandler{
		teachers:    teachers,
		lookups:     lookups,
		exports:     exports,
		metrics:     metrics,
		notifier:    service.NewLogNotifier(logger),
		uploadLimit: uploadLimit,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TeacherHandler) operations(query models.PageQuery, board *service.NoticeBoard) *service.TeacherOperations {
	opts := []service.OperationsOption{
		service.WithNotifier(board),
		service.WithOperationsMetrics(h.metrics),
		service.WithOperationsLogger(h.logger),
	}
	if h.warmer != nil {
		opts = append(opts, service.WithOnSuccess(h.warmer.Warm))
	}
	return service.NewTeacherOperations(h.teachers, query, opts...)
}

func listingViewFromQuery(c *gin.Context) service.ListingView {
	view := service.NewListingView()
	view.SetSearch(strings.TrimSpace(c.Query("search")))
	view.SetPosition(strings.TrimSpace(c.Query("lavozim")))
	view.SetDepartment(strings.TrimSpace(c.Query("college")))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.Query("size"))
	view.ChangePage(page, size)
	return view
}

// lookupItems loads a lookup list; failures degrade to an empty list.
func (h *TeacherHandler) lookupItems(ctx context.Context, kind models.LookupKind) []models.LookupItem {
	items, err := h.lookups.List(ctx, kind)
	if err != nil {
		h.logger.Warn("lookup unavailable", zap.String("kind", string(kind)), zap.Error(err))
		return nil
	}
	return items
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Param search query string false "Filter by name"
// @Param lavozim query string false "Filter by position"
// @Param college query string false "Filter by department"
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	view := listingViewFromQuery(c)
	board := service.NewNoticeBoard(h.notifier)
	ops := h.operations(view.Query(), board)

	if err := ops.SetQuery(ctx, view.Query()); err != nil {
		board.Error(service.MsgListFailed)
		middleware.SetNotices(c, board.Notices())
		response.Error(c, service.UpstreamError(err, service.MsgListFailed), middleware.ExtractMeta(c))
		return
	}

	vm := service.BuildListingViewModel(view, ops,
		h.lookupItems(ctx, models.LookupPositions),
		h.lookupItems(ctx, models.LookupDepartments),
	)
	middleware.SetCacheHit(c, ops.CacheHit())
	response.JSON(c, http.StatusOK, vm, vm.EnvelopePagination(), middleware.ExtractMeta(c))
}

// Options godoc
// @Summary Search department or position options
// @Tags Teachers
// @Produce json
// @Param kind query string true "department or position"
// @Param q query string false "Case-insensitive label filter"
// @Param value query string false "id (default) or name"
// @Success 200 {object} response.Envelope
// @Router /teachers/options [get]
func (h *TeacherHandler) Options(c *gin.Context) {
	kind := models.LookupKind(strings.TrimSpace(c.Query("kind")))
	byName := strings.EqualFold(c.Query("value"), "name")
	options, err := h.lookups.Options(c.Request.Context(), kind, c.Query("q"), byName)
	if err != nil {
		response.Error(c, service.UpstreamError(err, "lookup failed"))
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

// Create godoc
// @Summary Create a teacher
// @Description Uploads the photo and documents, then creates the teacher.
// @Tags Teachers
// @Accept multipart/form-data
// @Produce json
// @Param fullName formData string true "Full name"
// @Param email formData string true "Email"
// @Param phoneNumber formData string true "Phone number"
// @Param age formData string true "Age"
// @Param gender formData string true "male or female"
// @Param password formData string true "Password"
// @Param departmentId formData string true "Department id"
// @Param lavozmId formData string true "Position id"
// @Param image formData file false "Photo"
// @Param pdfs formData file false "Documents"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	board := service.NewNoticeBoard(h.notifier)
	ops := h.operations(models.PageQuery{}, board)
	form := service.NewTeacherForm(ops, service.NewPanel(),
		service.WithUploadLimit(h.uploadLimit),
		service.WithOfferedOptions(
			service.IDOptions(h.lookupItems(ctx, models.LookupDepartments)),
			service.IDOptions(h.lookupItems(ctx, models.LookupPositions)),
		),
		service.WithFormMetrics(h.metrics),
		service.WithFormLogger(h.logger),
	)
	form.Panel().Open()

	fail := func(err error) {
		middleware.SetNotices(c, board.Notices())
		response.Error(c, err, middleware.ExtractMeta(c))
	}

	var values service.TeacherFormValues
	if err := c.ShouldBind(&values); err != nil {
		fail(appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	form.SetValues(values)

	if err := h.stageAttachments(c, form); err != nil {
		fail(err)
		return
	}

	result, err := form.Submit(ctx)
	if err != nil {
		if result != nil && result.Invalid != nil {
			fail(appErrors.WithFields(appErrors.ErrValidation, result.Invalid))
			return
		}
		cause := err
		var stepErr *service.StepError
		if errors.As(err, &stepErr) {
			cause = stepErr.Err
		}
		fail(service.UpstreamError(cause, failureMessage(result)))
		return
	}

	middleware.SetNotices(c, board.Notices())
	response.Created(c, result, middleware.ExtractMeta(c))
}

func failureMessage(result *service.SubmitResult) string {
	if result == nil {
		return service.MsgCreateFailed
	}
	switch result.FailedStep {
	case service.StepUploadImage:
		return service.MsgImageUploadFailed
	case service.StepUploadPDFs:
		return service.MsgPDFUploadFailed
	}
	return service.MsgCreateFailed
}

// stageAttachments stages the optional photo and every document. A rejected file is left
// out with its notice on the board and the remaining files are still staged.
func (h *TeacherHandler) stageAttachments(c *gin.Context, form *service.TeacherForm) error {
	mf, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil
		}
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if images := mf.File["image"]; len(images) > 0 {
		name, contentType, content, err := h.readPart(images[0])
		if err != nil {
			return err
		}
		if _, err := form.StageImage(name, contentType, content); err != nil && !errors.Is(err, appErrors.ErrRejectedUpload) {
			return err
		}
	}
	for _, fh := range mf.File["pdfs"] {
		name, contentType, content, err := h.readPart(fh)
		if err != nil {
			return err
		}
		if _, err := form.StagePDF(name, contentType, content); err != nil {
			if errors.Is(err, appErrors.ErrRejectedUpload) {
				h.logger.Debug("document left out", zap.String("file", name), zap.Error(err))
				continue
			}
			return err
		}
	}
	return nil
}

// readPart reads at most one byte past the upload limit, enough for the size check to reject.
func (h *TeacherHandler) readPart(fh *multipart.FileHeader) (string, string, []byte, error) {
	f, err := fh.Open()
	if err != nil {
		return "", "", nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable attachment")
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, h.uploadLimit+1))
	if err != nil {
		return "", "", nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable attachment")
	}
	return fh.Filename, fh.Header.Get("Content-Type"), content, nil
}

// Export godoc
// @Summary Export the current listing page
// @Tags Teachers
// @Produce application/pdf
// @Produce text/csv
// @Param format query string false "pdf (default) or csv"
// @Param search query string false "Filter by name"
// @Param lavozim query string false "Filter by position"
// @Param college query string false "Filter by department"
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size"
// @Success 200 {file} file
// @Router /teachers/export [get]
func (h *TeacherHandler) Export(c *gin.Context) {
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(service.ExportPDF))))
	result, err := h.exports.Roster(c.Request.Context(), listingViewFromQuery(c), format)
	if err != nil {
		response.Error(c, service.UpstreamError(err, service.MsgListFailed))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("X-Export-Rows", strconv.Itoa(result.Rows))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
