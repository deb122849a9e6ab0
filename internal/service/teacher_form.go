package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/docker/go-units"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/teachers-admin/internal/models"
	appErrors "github.com/noah-isme/teachers-admin/pkg/errors"
)

// DefaultUploadLimit bounds every staged attachment unless configured otherwise.
const DefaultUploadLimit int64 = 5 * units.MiB

// Submission steps in execution order.
const (
	StepValidate    = "validate"
	StepUploadImage = "upload_image"
	StepUploadPDFs  = "upload_pdfs"
	StepAssemble    = "assemble"
	StepCreate      = "create"
)

// TeacherFormValues are the raw creation form fields.
type TeacherFormValues struct {
	FullName     string `json:"fullName" form:"fullName" validate:"required"`
	Email        string `json:"email" form:"email" validate:"required,email"`
	PhoneNumber  string `json:"phoneNumber" form:"phoneNumber" validate:"required"`
	Age          string `json:"age" form:"age" validate:"required,digits,teacher_age"`
	Gender       string `json:"gender" form:"gender" validate:"required,gender"`
	Password     string `json:"password" form:"password" validate:"required,min=6"`
	DepartmentID string `json:"departmentId" form:"departmentId" validate:"required,digits"`
	LavozmID     string `json:"lavozmId" form:"lavozmId" validate:"required,digits"`
	Biography    string `json:"biography" form:"biography"`
	Input        string `json:"input" form:"input"`
	Profession   string `json:"profession" form:"profession"`
}

// Normalize trims every field except the password.
func (v TeacherFormValues) Normalize() TeacherFormValues {
	v.FullName = strings.TrimSpace(v.FullName)
	v.Email = strings.TrimSpace(v.Email)
	v.PhoneNumber = strings.TrimSpace(v.PhoneNumber)
	v.Age = strings.TrimSpace(v.Age)
	v.Gender = strings.ToLower(strings.TrimSpace(v.Gender))
	v.DepartmentID = strings.TrimSpace(v.DepartmentID)
	v.LavozmID = strings.TrimSpace(v.LavozmID)
	v.Biography = strings.TrimSpace(v.Biography)
	v.Input = strings.TrimSpace(v.Input)
	v.Profession = strings.TrimSpace(v.Profession)
	return v
}

// ValidationErrors maps a form field to its localized message.
type ValidationErrors map[string]string

var fieldMessages = map[string]map[string]string{
	"fullName":     {"": "Iltimos, to'liq ism kiriting!"},
	"email":        {"": "Iltimos, email kiriting!", "email": "To'g'ri email kiriting!"},
	"phoneNumber":  {"": "Iltimos, telefon raqami kiriting!"},
	"age":          {"": "Iltimos, yoshni kiriting!", "digits": "Faqat raqam kiriting!"},
	"gender":       {"": "Iltimos, jinsni tanlang!"},
	"password":     {"": "Iltimos, parol kiriting!", "min": "Parol kamida 6 ta belgidan iborat bo'lishi kerak!"},
	"departmentId": {"": "Iltimos, kafedra tanlang!"},
	"lavozmId":     {"": "Iltimos, lavozim tanlang!"},
}

const (
	msgAgeTooYoung = "Yosh kamida 18 bo'lishi kerak!"
	msgAgeTooOld   = "Yosh 100 dan oshmasligi kerak!"
	minTeacherAge  = 18
	maxTeacherAge  = 100
)

// NewFormValidator registers the creation form's custom rules.
func NewFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return isDigits(fl.Field().String())
	})
	_ = v.RegisterValidation("teacher_age", func(fl validator.FieldLevel) bool {
		age, err := strconv.Atoi(fl.Field().String())
		return err == nil && age >= minTeacherAge && age <= maxTeacherAge
	})
	_ = v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		g := strings.ToLower(fl.Field().String())
		return g == "male" || g == "female"
	})
	return v
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func messageFor(fe validator.FieldError) string {
	if fe.Field() == "age" && fe.Tag() == "teacher_age" {
		if age, err := strconv.Atoi(fe.Value().(string)); err == nil && age < minTeacherAge {
			return msgAgeTooYoung
		}
		return msgAgeTooOld
	}
	messages := fieldMessages[fe.Field()]
	if msg, ok := messages[fe.Tag()]; ok {
		return msg
	}
	if msg, ok := messages[""]; ok {
		return msg
	}
	return fe.Error()
}

// TeacherForm is one creation panel: field values, staged attachments and the submission
// pipeline that turns them into a teacher.
type TeacherForm struct {
	ops       *TeacherOperations
	panel     *Panel
	validate  *validator.Validate
	notifier  Notifier
	metrics   *MetricsService
	logger    *zap.Logger
	maxUpload int64

	departments []models.Option
	positions   []models.Option

	submitMu sync.Mutex
	mu       sync.Mutex
	values   TeacherFormValues
	image    *StagedFile
	pdfs     []StagedFile
}

// FormOption customises a TeacherForm.
type FormOption func(*TeacherForm)

// WithFormValidator replaces the default validator.
func WithFormValidator(v *validator.Validate) FormOption {
	return func(f *TeacherForm) {
		if v != nil {
			f.validate = v
		}
	}
}

// WithFormNotifier routes rejection notices.
func WithFormNotifier(n Notifier) FormOption {
	return func(f *TeacherForm) {
		if n != nil {
			f.notifier = n
		}
	}
}

// WithUploadLimit sets the per-file size limit in bytes. Files must be strictly smaller.
func WithUploadLimit(limit int64) FormOption {
	return func(f *TeacherForm) {
		if limit > 0 {
			f.maxUpload = limit
		}
	}
}

// WithOfferedOptions restricts department and position ids to the given option sets.
func WithOfferedOptions(departments, positions []models.Option) FormOption {
	return func(f *TeacherForm) {
		f.departments = departments
		f.positions = positions
	}
}

// WithFormMetrics records rejected attachments and submission outcomes.
func WithFormMetrics(m *MetricsService) FormOption {
	return func(f *TeacherForm) { f.metrics = m }
}

// WithFormLogger sets the logger.
func WithFormLogger(l *zap.Logger) FormOption {
	return func(f *TeacherForm) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewTeacherForm binds a form to its operations and panel. Closing the panel resets the form.
func NewTeacherForm(ops *TeacherOperations, panel *Panel, opts ...FormOption) *TeacherForm {
	if panel == nil {
		panel = NewPanel()
	}
	f := &TeacherForm{
		ops:       ops,
		panel:     panel,
		notifier:  ops.notifier,
		logger:    zap.NewNop(),
		maxUpload: DefaultUploadLimit,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.validate == nil {
		f.validate = NewFormValidator()
	}
	panel.OnClose(f.Reset)
	return f
}

// Panel returns the panel this form lives in.
func (f *TeacherForm) Panel() *Panel {
	return f.panel
}

// SetValues replaces the field values.
func (f *TeacherForm) SetValues(values TeacherFormValues) {
	f.mu.Lock()
	f.values = values
	f.mu.Unlock()
}

// Values returns the current field values.
func (f *TeacherForm) Values() TeacherFormValues {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Validate checks values against the form rules and the offered option sets.
func (f *TeacherForm) Validate(values TeacherFormValues) ValidationErrors {
	values = values.Normalize()
	out := ValidationErrors{}
	if err := f.validate.Struct(values); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			out["form"] = err.Error()
			return out
		}
		for _, fe := range fieldErrs {
			if _, seen := out[fe.Field()]; !seen {
				out[fe.Field()] = messageFor(fe)
			}
		}
	}
	if _, bad := out["departmentId"]; !bad && len(f.departments) > 0 && !HasOption(f.departments, values.DepartmentID) {
		out["departmentId"] = fieldMessages["departmentId"][""]
	}
	if _, bad := out["lavozmId"]; !bad && len(f.positions) > 0 && !HasOption(f.positions, values.LavozmID) {
		out["lavozmId"] = fieldMessages["lavozmId"][""]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// UploadLimitLabel renders the size limit the way the rejection notices show it.
func (f *TeacherForm) UploadLimitLabel() string {
	return units.CustomSize("%.4g%s", float64(f.maxUpload), 1024.0, []string{"B", "KB", "MB", "GB", "TB"})
}

func (f *TeacherForm) reject(kind, message string) error {
	f.notifier.Error(message)
	f.metrics.RecordUpload(kind, "rejected")
	return appErrors.Clone(appErrors.ErrRejectedUpload, message)
}

func (f *TeacherForm) newStaged(name, contentType string, content []byte) StagedFile {
	return StagedFile{
		UID:         uuid.NewString(),
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(content)),
		Content:     content,
	}
}

// StageImage stages the single photo, replacing any previous one. Non-images and files at
// or over the limit are rejected with a notice and leave the staging untouched.
func (f *TeacherForm) StageImage(name, contentType string, content []byte) (StagedFile, error) {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return StagedFile{}, f.reject("image", MsgImageTypeRejected)
	}
	if int64(len(content)) >= f.maxUpload {
		return StagedFile{}, f.reject("image", fmt.Sprintf(msgImageSizeRejectedFmt, f.UploadLimitLabel()))
	}
	staged := f.newStaged(name, contentType, content)
	f.mu.Lock()
	f.image = &staged
	f.mu.Unlock()
	return staged, nil
}

// StagePDF appends a document. A rejected file does not affect documents already staged.
func (f *TeacherForm) StagePDF(name, contentType string, content []byte) (StagedFile, error) {
	if !strings.EqualFold(strings.TrimSpace(contentType), "application/pdf") {
		return StagedFile{}, f.reject("pdf", MsgPDFTypeRejected)
	}
	if int64(len(content)) >= f.maxUpload {
		return StagedFile{}, f.reject("pdf", fmt.Sprintf(msgPDFSizeRejectedFmt, f.UploadLimitLabel()))
	}
	staged := f.newStaged(name, contentType, content)
	f.mu.Lock()
	f.pdfs = append(f.pdfs, staged)
	f.mu.Unlock()
	return staged, nil
}

// RemoveImage drops the staged photo.
func (f *TeacherForm) RemoveImage() {
	f.mu.Lock()
	f.image = nil
	f.mu.Unlock()
}

// RemovePDF drops the staged document with uid and reports whether it was staged.
func (f *TeacherForm) RemovePDF(uid string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, staged := range f.pdfs {
		if staged.UID == uid {
			f.pdfs = append(f.pdfs[:i], f.pdfs[i+1:]...)
			return true
		}
	}
	return false
}

// Staged returns the staged photo (nil when none) and documents in attachment order.
func (f *TeacherForm) Staged() (*StagedFile, []StagedFile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var image *StagedFile
	if f.image != nil {
		cp := *f.image
		image = &cp
	}
	return image, append([]StagedFile(nil), f.pdfs...)
}

// Reset clears values and staged attachments.
func (f *TeacherForm) Reset() {
	f.mu.Lock()
	f.values = TeacherFormValues{}
	f.image = nil
	f.pdfs = nil
	f.mu.Unlock()
}

// SubmitResult describes a finished submission.
type SubmitResult struct {
	Teacher    *models.Teacher  `json:"teacher,omitempty"`
	ImageURL   string           `json:"imageUrl,omitempty"`
	PDFURLs    []string         `json:"pdfUrls,omitempty"`
	FailedStep string           `json:"failedStep,omitempty"`
	Orphaned   []string         `json:"orphaned,omitempty"`
	Invalid    ValidationErrors `json:"invalid,omitempty"`
}

type submission struct {
	form     *TeacherForm
	values   TeacherFormValues
	image    *StagedFile
	pdfs     []StagedFile
	imageURL string
	pdfURLs  []string
	invalid  ValidationErrors
	payload  models.TeacherCreateInput
	created  *models.Teacher
}

func (s *submission) uploaded() []string {
	var urls []string
	if s.imageURL != "" {
		urls = append(urls, s.imageURL)
	}
	return append(urls, s.pdfURLs...)
}

var submitPipeline = NewPipeline(
	PipelineStep[submission]{Name: StepValidate, Run: func(ctx context.Context, s *submission) error {
		if invalid := s.form.Validate(s.values); invalid != nil {
			s.invalid = invalid
			return appErrors.WithFields(appErrors.ErrValidation, invalid)
		}
		s.values = s.values.Normalize()
		return nil
	}},
	PipelineStep[submission]{Name: StepUploadImage, Run: func(ctx context.Context, s *submission) error {
		if s.image == nil {
			return nil
		}
		url, err := s.form.ops.UploadImage.Run(ctx, *s.image)
		if err != nil {
			return err
		}
		s.imageURL = url
		return nil
	}},
	PipelineStep[submission]{Name: StepUploadPDFs, Run: func(ctx context.Context, s *submission) error {
		for _, pdf := range s.pdfs {
			url, err := s.form.ops.UploadPDF.Run(ctx, pdf)
			if err != nil {
				return err
			}
			s.pdfURLs = append(s.pdfURLs, url)
		}
		return nil
	}},
	PipelineStep[submission]{Name: StepAssemble, Run: func(ctx context.Context, s *submission) error {
		payload, err := AssemblePayload(s.values, s.imageURL, s.pdfURLs)
		if err != nil {
			return err
		}
		s.payload = payload
		return nil
	}},
	PipelineStep[submission]{Name: StepCreate, Run: func(ctx context.Context, s *submission) error {
		created, err := s.form.ops.CreateTeacher.Run(ctx, s.payload)
		if err != nil {
			return err
		}
		s.created = created
		return nil
	}},
)

// AssemblePayload coerces validated form values into the backend payload.
func AssemblePayload(values TeacherFormValues, imageURL string, pdfURLs []string) (models.TeacherCreateInput, error) {
	age, err := strconv.Atoi(values.Age)
	if err != nil {
		return models.TeacherCreateInput{}, fmt.Errorf("age %q: %w", values.Age, err)
	}
	departmentID, err := strconv.ParseInt(values.DepartmentID, 10, 64)
	if err != nil {
		return models.TeacherCreateInput{}, fmt.Errorf("departmentId %q: %w", values.DepartmentID, err)
	}
	lavozmID, err := strconv.ParseInt(values.LavozmID, 10, 64)
	if err != nil {
		return models.TeacherCreateInput{}, fmt.Errorf("lavozmId %q: %w", values.LavozmID, err)
	}
	if pdfURLs == nil {
		pdfURLs = []string{}
	}
	return models.TeacherCreateInput{
		FullName:     values.FullName,
		PhoneNumber:  values.PhoneNumber,
		Biography:    values.Biography,
		ImgURL:       imageURL,
		PDFURLs:      pdfURLs,
		Input:        values.Input,
		Profession:   values.Profession,
		LavozmID:     lavozmID,
		Email:        values.Email,
		Age:          age,
		Gender:       strings.EqualFold(values.Gender, "male"),
		Password:     values.Password,
		DepartmentID: departmentID,
	}, nil
}

// Submit validates the form, uploads the photo and then each document in attachment order,
// and creates the teacher. The first failing step stops the submission and leaves the form
// populated and the panel open. Files uploaded before a failure are reported as orphaned.
func (f *TeacherForm) Submit(ctx context.Context) (*SubmitResult, error) {
	f.submitMu.Lock()
	defer f.submitMu.Unlock()

	f.mu.Lock()
	state := &submission{form: f, values: f.values, pdfs: append([]StagedFile(nil), f.pdfs...)}
	if f.image != nil {
		cp := *f.image
		state.image = &cp
	}
	f.mu.Unlock()

	err := submitPipeline.Run(ctx, state)
	result := &SubmitResult{
		Teacher:  state.created,
		ImageURL: state.imageURL,
		PDFURLs:  state.pdfURLs,
		Invalid:  state.invalid,
	}
	if err != nil {
		var stepErr *StepError
		if errors.As(err, &stepErr) {
			result.FailedStep = stepErr.Step
		}
		result.Orphaned = state.uploaded()
		f.metrics.RecordSubmission(result.FailedStep)
		fields := []zap.Field{zap.String("step", result.FailedStep), zap.Error(err)}
		if len(result.Orphaned) > 0 {
			fields = append(fields, zap.Strings("orphaned", result.Orphaned))
		}
		f.logger.Warn("teacher submission failed", fields...)
		return result, err
	}

	f.metrics.RecordSubmission("created")
	f.logger.Info("teacher created",
		zap.Int64("id", state.created.ID),
		zap.Int("pdfs", len(state.pdfURLs)),
		zap.Bool("image", state.imageURL != ""),
	)
	f.Reset()
	f.panel.Close()
	return result, nil
}
