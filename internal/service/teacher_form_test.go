package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/docker/go-units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/teachers-admin/internal/client"
	"github.com/noah-isme/teachers-admin/internal/models"
	appErrors "github.com/noah-isme/teachers-admin/pkg/errors"
)

func validValues() TeacherFormValues {
	return TeacherFormValues{
		FullName:     "Ali Valiyev",
		Email:        "ali@example.uz",
		PhoneNumber:  "+998901234567",
		Age:          "35",
		Gender:       "male",
		Password:     "secret1",
		DepartmentID: "2",
		LavozmID:     "3",
		Biography:    "Fizika o'qituvchisi",
	}
}

type formFixture struct {
	backend *fakeBackend
	board   *NoticeBoard
	ops     *TeacherOperations
	form    *TeacherForm
	svc     *TeacherService
}

func newFormFixture(backend *fakeBackend, opts ...FormOption) formFixture {
	board := NewNoticeBoard(nil)
	svc := newCachedTeacherService(backend)
	ops := NewTeacherOperations(svc, models.PageQuery{}, WithNotifier(board))
	panel := NewPanel()
	panel.Open()
	return formFixture{backend: backend, board: board, ops: ops, svc: svc, form: NewTeacherForm(ops, panel, opts...)}
}

func TestAgeValidation(t *testing.T) {
	form := newFormFixture(&fakeBackend{}).form
	cases := []struct {
		age     string
		message string
	}{
		{age: "17", message: msgAgeTooYoung},
		{age: "101", message: msgAgeTooOld},
		{age: "18"},
		{age: "100"},
		{age: "abc", message: "Faqat raqam kiriting!"},
		{age: "35.5", message: "Faqat raqam kiriting!"},
		{age: " ", message: "Iltimos, yoshni kiriting!"},
	}
	for _, tc := range cases {
		t.Run(tc.age, func(t *testing.T) {
			values := validValues()
			values.Age = tc.age
			invalid := form.Validate(values)
			if tc.message == "" {
				assert.Nil(t, invalid)
				return
			}
			assert.Equal(t, tc.message, invalid["age"])
		})
	}
}

func TestFieldValidationMessages(t *testing.T) {
	form := newFormFixture(&fakeBackend{}).form

	invalid := form.Validate(TeacherFormValues{Email: "not-an-email", Password: "12345", Gender: "other"})
	assert.Equal(t, "Iltimos, to'liq ism kiriting!", invalid["fullName"])
	assert.Equal(t, "To'g'ri email kiriting!", invalid["email"])
	assert.Equal(t, "Iltimos, telefon raqami kiriting!", invalid["phoneNumber"])
	assert.Equal(t, "Iltimos, jinsni tanlang!", invalid["gender"])
	assert.Equal(t, "Parol kamida 6 ta belgidan iborat bo'lishi kerak!", invalid["password"])
	assert.Equal(t, "Iltimos, kafedra tanlang!", invalid["departmentId"])
	assert.Equal(t, "Iltimos, lavozim tanlang!", invalid["lavozmId"])

	invalid = form.Validate(TeacherFormValues{})
	assert.Equal(t, "Iltimos, email kiriting!", invalid["email"])
	assert.Equal(t, "Iltimos, parol kiriting!", invalid["password"])
}

func TestOfferedOptionsRestrictSelection(t *testing.T) {
	form := newFormFixture(&fakeBackend{}, WithOfferedOptions(
		[]models.Option{{Value: "2", Label: "Fizika"}},
		[]models.Option{{Value: "4", Label: "Professor"}},
	)).form

	invalid := form.Validate(validValues())
	assert.NotContains(t, invalid, "departmentId")
	assert.Equal(t, "Iltimos, lavozim tanlang!", invalid["lavozmId"])
}

func TestSubmitUploadsInOrderThenCreates(t *testing.T) {
	fx := newFormFixture(&fakeBackend{})
	fx.form.SetValues(validValues())

	_, err := fx.form.StageImage("photo.png", "image/png", make([]byte, 2*units.MiB))
	require.NoError(t, err)
	_, err = fx.form.StagePDF("cv.pdf", "application/pdf", make([]byte, units.MiB))
	require.NoError(t, err)
	_, err = fx.form.StagePDF("diplom.pdf", "application/pdf", make([]byte, units.MiB))
	require.NoError(t, err)

	result, err := fx.form.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"upload_image:photo.png",
		"upload_pdf:cv.pdf",
		"upload_pdf:diplom.pdf",
		"create",
	}, fx.backend.callLog())

	require.Len(t, fx.backend.created, 1)
	payload := fx.backend.created[0]
	require.Len(t, payload.PDFURLs, 2)
	assert.Contains(t, payload.PDFURLs[0], "cv.pdf")
	assert.Contains(t, payload.PDFURLs[1], "diplom.pdf")
	assert.Contains(t, payload.ImgURL, "photo.png")
	assert.Equal(t, 35, payload.Age)
	assert.True(t, payload.Gender)
	assert.Equal(t, int64(2), payload.DepartmentID)
	assert.Equal(t, int64(3), payload.LavozmID)

	assert.Equal(t, result.PDFURLs, payload.PDFURLs)
	assert.Empty(t, result.FailedStep)
	assert.False(t, fx.form.Panel().IsOpen())
	assert.Equal(t, TeacherFormValues{}, fx.form.Values())
	image, pdfs := fx.form.Staged()
	assert.Nil(t, image)
	assert.Empty(t, pdfs)
	assert.Equal(t, []string{MsgCreateSucceeded}, []string{fx.board.Notices()[0].Message})
}

func TestOversizedImageIsNeverUploaded(t *testing.T) {
	fx := newFormFixture(&fakeBackend{})
	fx.form.SetValues(validValues())

	_, err := fx.form.StageImage("big.png", "image/png", make([]byte, 6*units.MiB))
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrRejectedUpload)
	assert.Equal(t, []string{"Rasm hajmi 5MB dan kichik bo'lishi kerak!"}, fx.board.Errors())

	image, _ := fx.form.Staged()
	assert.Nil(t, image)
	assert.Empty(t, fx.backend.uploadCalls())
	assert.True(t, fx.form.Panel().IsOpen())
}

func TestUploadLimitIsStrict(t *testing.T) {
	fx := newFormFixture(&fakeBackend{})

	_, err := fx.form.StagePDF("exact.pdf", "application/pdf", make([]byte, 5*units.MiB))
	require.Error(t, err)
	_, err = fx.form.StagePDF("under.pdf", "application/pdf", make([]byte, 5*units.MiB-1))
	require.NoError(t, err)
	assert.Equal(t, "5MB", fx.form.UploadLimitLabel())
}

func TestRejectedAttachmentsLeaveOthersStaged(t *testing.T) {
	fx := newFormFixture(&fakeBackend{})

	first, err := fx.form.StagePDF("a.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	_, err = fx.form.StagePDF("notes.docx", "application/msword", []byte("doc"))
	require.Error(t, err)
	_, err = fx.form.StageImage("cv.pdf", "application/pdf", []byte("%PDF"))
	require.Error(t, err)
	second, err := fx.form.StagePDF("b.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)

	_, pdfs := fx.form.Staged()
	require.Len(t, pdfs, 2)
	assert.Equal(t, first.UID, pdfs[0].UID)
	assert.NotEqual(t, first.UID, second.UID)
	assert.Equal(t, []string{MsgPDFTypeRejected, MsgImageTypeRejected}, fx.board.Errors())

	assert.True(t, fx.form.RemovePDF(first.UID))
	assert.False(t, fx.form.RemovePDF(first.UID))
	_, pdfs = fx.form.Staged()
	require.Len(t, pdfs, 1)
	assert.Equal(t, "b.pdf", pdfs[0].Name)
}

func TestStageImageReplacesPrevious(t *testing.T) {
	fx := newFormFixture(&fakeBackend{})
	_, err := fx.form.StageImage("one.png", "image/png", []byte("1"))
	require.NoError(t, err)
	_, err = fx.form.StageImage("two.jpg", "image/jpeg", []byte("2"))
	require.NoError(t, err)

	image, _ := fx.form.Staged()
	require.NotNil(t, image)
	assert.Equal(t, "two.jpg", image.Name)

	fx.form.RemoveImage()
	image, _ = fx.form.Staged()
	assert.Nil(t, image)
}

func TestInvalidFormNeverReachesBackend(t *testing.T) {
	fx := newFormFixture(&fakeBackend{})
	values := validValues()
	values.Age = "17"
	fx.form.SetValues(values)
	_, err := fx.form.StageImage("photo.png", "image/png", []byte("png"))
	require.NoError(t, err)

	result, err := fx.form.Submit(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, StepValidate, result.FailedStep)
	assert.Equal(t, msgAgeTooYoung, result.Invalid["age"])
	assert.Empty(t, fx.backend.callLog())
	assert.True(t, fx.form.Panel().IsOpen())
	assert.Equal(t, values, fx.form.Values())
}

func TestFailedPDFUploadStopsSubmission(t *testing.T) {
	backend := &fakeBackend{
		uploadErr:  map[client.UploadKind]error{client.UploadPDF: &client.Error{Status: http.StatusBadGateway}},
		failOnName: "second.pdf",
	}
	fx := newFormFixture(backend)
	fx.form.SetValues(validValues())
	_, err := fx.form.StageImage("photo.png", "image/png", []byte("png"))
	require.NoError(t, err)
	_, err = fx.form.StagePDF("first.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	_, err = fx.form.StagePDF("second.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	_, err = fx.form.StagePDF("third.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)

	result, err := fx.form.Submit(context.Background())
	require.Error(t, err)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepUploadPDFs, stepErr.Step)
	assert.Equal(t, StepUploadPDFs, result.FailedStep)
	assert.Equal(t, []string{
		"upload_image:photo.png",
		"upload_pdf:first.pdf",
		"upload_pdf:second.pdf",
	}, backend.callLog())
	assert.Len(t, result.Orphaned, 2)
	assert.Empty(t, backend.created)

	assert.True(t, fx.form.Panel().IsOpen())
	assert.Equal(t, validValues(), fx.form.Values())
	_, pdfs := fx.form.Staged()
	assert.Len(t, pdfs, 3)
	assert.Equal(t, MutationError, fx.ops.UploadPDF.Status())
	assert.Equal(t, []string{MsgPDFUploadFailed}, fx.board.Errors())
}

func TestCreateFailureKeepsPanelOpen(t *testing.T) {
	backend := &fakeBackend{createErr: &client.Error{Status: http.StatusConflict, Message: "Email band"}}
	fx := newFormFixture(backend)
	fx.form.SetValues(validValues())

	result, err := fx.form.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StepCreate, result.FailedStep)
	assert.Empty(t, result.Orphaned)
	assert.True(t, fx.form.Panel().IsOpen())
	assert.Equal(t, []string{"Email band"}, fx.board.Errors())
}

func TestClosingPanelResetsForm(t *testing.T) {
	fx := newFormFixture(&fakeBackend{})
	fx.form.SetValues(validValues())
	_, err := fx.form.StagePDF("a.pdf", "application/pdf", bytes.Repeat([]byte("x"), 10))
	require.NoError(t, err)

	fx.form.Panel().Close()

	assert.Equal(t, TeacherFormValues{}, fx.form.Values())
	_, pdfs := fx.form.Staged()
	assert.Empty(t, pdfs)
}

func TestAssemblePayloadWithoutAttachments(t *testing.T) {
	values := validValues()
	values.Gender = "female"
	payload, err := AssemblePayload(values.Normalize(), "", nil)
	require.NoError(t, err)
	assert.False(t, payload.Gender)
	assert.Empty(t, payload.ImgURL)
	assert.NotNil(t, payload.PDFURLs)
	assert.Empty(t, payload.FileURL)
}
