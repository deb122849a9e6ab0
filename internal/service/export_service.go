package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/teachers-admin/internal/models"
	"github.com/noah-isme/teachers-admin/pkg/export"
	appErrors "github.com/noah-isme/teachers-admin/pkg/errors"
)

// ExportFormat selects the roster file type.
type ExportFormat string

const (
	ExportPDF ExportFormat = "pdf"
	ExportCSV ExportFormat = "csv"
)

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	if f == ExportCSV {
		return "text/csv"
	}
	return "application/pdf"
}

// ExportResult is a rendered roster file.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, footer string) ([]byte, error)
}

type rosterSource interface {
	List(ctx context.Context, query models.PageQuery) (*models.TeacherPage, bool, error)
}

// ExportService renders the filtered directory as a printable roster.
type ExportService struct {
	teachers rosterSource
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(teachers rosterSource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{teachers: teachers, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

var rosterColumns = []export.Column{
	{Key: "id", Title: "ID", Width: 15},
	{Key: "name", Title: "F.I.Sh"},
	{Key: "position", Title: "Lavozim", Width: 40},
	{Key: "department", Title: "Kafedra", Width: 50},
	{Key: "email", Title: "Email", Width: 55},
	{Key: "phone", Title: "Telefon", Width: 35},
}

// Roster renders one listing page for the view in the requested format.
func (s *ExportService) Roster(ctx context.Context, view ListingView, format ExportFormat) (*ExportResult, error) {
	if format != ExportPDF && format != ExportCSV {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	page, _, err := s.teachers.List(ctx, view.Query())
	if err != nil {
		return nil, err
	}

	data := export.Dataset{Columns: rosterColumns}
	for _, t := range page.Body {
		data.Rows = append(data.Rows, map[string]string{
			"id":         strconv.FormatInt(t.ID, 10),
			"name":       t.Name,
			"position":   t.Lavozim,
			"department": t.DepartmentName,
			"email":      t.Email,
			"phone":      t.PhoneNumber,
		})
	}

	generated := s.now().UTC()
	var body []byte
	switch format {
	case ExportCSV:
		body, err = s.csv.Render(data)
	default:
		footer := fmt.Sprintf("%s | %s", generated.Format("2006-01-02 15:04"), RangeLabel(page.Page+1, page.Size, page.TotalElements))
		body, err = s.pdf.Render(data, rosterTitle(view), footer)
	}
	if err != nil {
		s.logger.Error("render roster", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	return &ExportResult{
		Filename:    buildFilename(view, format, generated),
		ContentType: format.ContentType(),
		Data:        body,
		Rows:        len(data.Rows),
	}, nil
}

func rosterTitle(view ListingView) string {
	parts := []string{"O'qituvchilar"}
	for _, filter := range []string{view.Department, view.Position, view.Search} {
		if f := strings.TrimSpace(filter); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " - ")
}

func buildFilename(view ListingView, format ExportFormat, at time.Time) string {
	scope := sanitizeFilename(strings.TrimSpace(view.Department))
	return fmt.Sprintf("teachers_%s_p%d_%s.%s", scope, view.Query().Page+1, at.Format("20060102_150405"), format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_", "'", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
