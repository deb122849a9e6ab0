package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/teachers-admin/internal/models"
)

type stubListing struct {
	teachers   []models.Teacher
	total      int64
	totalPages int
	loading    bool
}

func (s stubListing) Teachers() []models.Teacher { return s.teachers }
func (s stubListing) Total() int64               { return s.total }
func (s stubListing) TotalPages() int            { return s.totalPages }
func (s stubListing) IsLoading() bool            { return s.loading }

func TestFilterChangesResetPage(t *testing.T) {
	view := NewListingView()
	view.ChangePage(4, 20)

	view.SetSearch("Ali")
	assert.Equal(t, 1, view.Page)

	view.ChangePage(3, 20)
	view.SetPosition("Dotsent")
	assert.Equal(t, 1, view.Page)

	view.ChangePage(2, 20)
	view.SetDepartment("Fizika")
	assert.Equal(t, 1, view.Page)

	view.ChangePage(2, 20)
	view.ClearFilters()
	assert.Equal(t, 1, view.Page)
	assert.False(t, view.HasFilters())
}

func TestListingQueryIsZeroBased(t *testing.T) {
	view := NewListingView()
	view.SetSearch("  Ali ")
	view.SetDepartment("Fizika")
	view.ChangePage(3, 30)

	q := view.Query()
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 30, q.Size)
	assert.Equal(t, "Ali", q.Name)
	assert.Equal(t, "Fizika", q.College)
	assert.Empty(t, q.Lavozim)

	view.ChangePage(3, 50)
	q = view.Query()
	assert.Equal(t, 50, q.Size)
	assert.Equal(t, "Ali", q.Name, "a size change keeps the filters")
	assert.NotContains(t, q.Values(), "lavozim")
}

func TestBuildListingViewModelStates(t *testing.T) {
	positions := []models.LookupItem{{ID: 1, Name: "Dotsent"}}
	departments := []models.LookupItem{{ID: 2, Name: "Fizika"}}

	loading := BuildListingViewModel(NewListingView(), stubListing{loading: true}, positions, departments)
	assert.True(t, loading.Loading)
	assert.False(t, loading.Empty)
	assert.Nil(t, loading.Pagination)

	empty := BuildListingViewModel(NewListingView(), stubListing{}, positions, departments)
	assert.True(t, empty.Empty)
	assert.Equal(t, MsgNoTeachersFound, empty.EmptyMessage)
	assert.Nil(t, empty.Pagination)
	assert.Equal(t, []models.Option{{Value: "Dotsent", Label: "Dotsent"}}, empty.PositionOptions)
	assert.Equal(t, []models.Option{{Value: "Fizika", Label: "Fizika"}}, empty.DepartmentOptions)
}

func TestBuildListingViewModelPagination(t *testing.T) {
	view := NewListingView()
	view.SetPosition("Dotsent")
	view.ChangePage(3, 20)

	vm := BuildListingViewModel(view, stubListing{
		teachers:   []models.Teacher{{ID: 41, Name: "Ali Valiyev", Lavozim: "Dotsent", DepartmentName: "Fizika", ImgURL: "/files/a.png"}},
		total:      45,
		totalPages: 3,
	}, nil, nil)

	require.Len(t, vm.Cards, 1)
	assert.Equal(t, TeacherCard{ID: 41, Name: "Ali Valiyev", Position: "Dotsent", Department: "Fizika", ImageURL: "/files/a.png", DetailPath: "/teachers/41"}, vm.Cards[0])
	assert.True(t, vm.ShowClearFilters)
	require.NotNil(t, vm.Pagination)
	assert.Equal(t, 3, vm.Pagination.Current)
	assert.Equal(t, "41-45 / 45 ta", vm.Pagination.RangeLabel)
	assert.Equal(t, []int{10, 20, 30, 50}, vm.Pagination.SizeOptions)
	assert.Equal(t, &models.Pagination{Page: 3, PageSize: 20, TotalCount: 45, TotalPages: 3}, vm.EnvelopePagination())
}

func TestRangeLabel(t *testing.T) {
	assert.Equal(t, "1-20 / 45 ta", RangeLabel(1, 20, 45))
	assert.Equal(t, "21-40 / 45 ta", RangeLabel(2, 20, 45))
	assert.Equal(t, "0-0 / 0 ta", RangeLabel(1, 20, 0))
}

func TestListingViewOverOperations(t *testing.T) {
	backend := &fakeBackend{teachers: seedTeachers(45)}
	ops := NewTeacherOperations(newCachedTeacherService(backend), models.PageQuery{})
	view := NewListingView()
	view.ChangePage(2, 20)

	require.NoError(t, ops.SetQuery(context.Background(), view.Query()))
	vm := BuildListingViewModel(view, ops, nil, nil)

	require.Len(t, vm.Cards, 20)
	assert.Equal(t, int64(21), vm.Cards[0].ID)
	assert.Equal(t, "21-40 / 45 ta", vm.Pagination.RangeLabel)
}
