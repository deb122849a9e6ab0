package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/teachers-admin/internal/client"
	"github.com/noah-isme/teachers-admin/internal/models"
)

func TestOperationsSafeDefaults(t *testing.T) {
	ops := NewTeacherOperations(newCachedTeacherService(&fakeBackend{}), models.PageQuery{})

	assert.Empty(t, ops.Teachers())
	assert.NotNil(t, ops.Teachers())
	assert.Equal(t, int64(0), ops.Total())
	assert.Equal(t, 0, ops.Page())
	assert.Equal(t, 10, ops.Size())
	assert.Equal(t, 1, ops.TotalPages())
	assert.False(t, ops.IsLoading())
	assert.NoError(t, ops.Err())
	assert.Equal(t, MutationIdle, ops.CreateTeacher.Status())
}

func TestOperationsLoadAndQueryChanges(t *testing.T) {
	backend := &fakeBackend{teachers: seedTeachers(25)}
	ops := NewTeacherOperations(newCachedTeacherService(backend), models.PageQuery{Size: 20})
	ctx := context.Background()

	require.NoError(t, ops.SetQuery(ctx, models.PageQuery{Size: 20}))
	assert.Len(t, ops.Teachers(), 20)
	assert.Equal(t, int64(25), ops.Total())
	assert.Equal(t, 2, ops.TotalPages())
	assert.Equal(t, 1, backend.listCalls)

	require.NoError(t, ops.SetQuery(ctx, models.PageQuery{Size: 20, Name: " "}))
	assert.Equal(t, 1, backend.listCalls, "an unchanged query does not reload")

	require.NoError(t, ops.SetQuery(ctx, models.PageQuery{Page: 1, Size: 20}))
	assert.Len(t, ops.Teachers(), 5)
	assert.Equal(t, 1, ops.Page())
	assert.Equal(t, 2, backend.listCalls)
}

func TestOperationsLoadFailureKeepsDefaults(t *testing.T) {
	backend := &fakeBackend{listErr: errors.New("connection refused")}
	ops := NewTeacherOperations(newCachedTeacherService(backend), models.PageQuery{})

	err := ops.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, err, ops.Err())
	assert.Empty(t, ops.Teachers())
	assert.Equal(t, 1, ops.TotalPages())
}

func TestUploadFailureNotifiesWithBackendMessage(t *testing.T) {
	backend := &fakeBackend{uploadErr: map[client.UploadKind]error{
		client.UploadImage: &client.Error{Status: http.StatusRequestEntityTooLarge, Message: "Fayl juda katta"},
		client.UploadPDF:   &client.Error{Err: errors.New("timeout")},
	}}
	board := NewNoticeBoard(nil)
	ops := NewTeacherOperations(newCachedTeacherService(backend), models.PageQuery{}, WithNotifier(board))
	ctx := context.Background()

	_, err := ops.UploadImage.Run(ctx, StagedFile{Name: "a.png", ContentType: "image/png", Content: []byte("x")})
	require.Error(t, err)
	assert.Equal(t, MutationError, ops.UploadImage.Status())
	assert.Equal(t, err, ops.UploadImage.Err())

	_, err = ops.UploadPDF.Run(ctx, StagedFile{Name: "a.pdf", ContentType: "application/pdf", Content: []byte("x")})
	require.Error(t, err)

	assert.Equal(t, []string{"Fayl juda katta", MsgPDFUploadFailed}, board.Errors())
}

func TestCreateFailureUsesFallbackNotice(t *testing.T) {
	backend := &fakeBackend{createErr: &client.Error{Status: http.StatusInternalServerError}}
	board := NewNoticeBoard(nil)
	called := false
	ops := NewTeacherOperations(newCachedTeacherService(backend), models.PageQuery{},
		WithNotifier(board),
		WithOnSuccess(func(context.Context, *models.Teacher) { called = true }),
	)

	_, err := ops.CreateTeacher.Run(context.Background(), models.TeacherCreateInput{FullName: "X"})
	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, []Notice{{Level: NoticeError, Message: MsgCreateFailed}}, board.Notices())
}

func TestCreateSuccessNotifiesAndCallsBack(t *testing.T) {
	backend := &fakeBackend{}
	board := NewNoticeBoard(nil)
	var got *models.Teacher
	ops := NewTeacherOperations(newCachedTeacherService(backend), models.PageQuery{},
		WithNotifier(board),
		WithOnSuccess(func(_ context.Context, teacher *models.Teacher) { got = teacher }),
	)

	teacher, err := ops.CreateTeacher.Run(context.Background(), models.TeacherCreateInput{FullName: "Ali Valiyev"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, teacher.ID, got.ID)
	assert.Equal(t, MutationSuccess, ops.CreateTeacher.Status())
	assert.Equal(t, teacher, ops.CreateTeacher.Data())
	assert.Equal(t, []Notice{{Level: NoticeSuccess, Message: MsgCreateSucceeded}}, board.Notices())
}
