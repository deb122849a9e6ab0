package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/teachers-admin/internal/models"
)

// Listing defaults for the directory view.
const (
	DefaultListingPageSize = 20
)

// ListingPageSizes are the page sizes offered by the pagination control.
var ListingPageSizes = []int{10, 20, 30, 50}

// ListingView is the local state of the directory page. Page is 1-based.
type ListingView struct {
	Search     string `json:"search"`
	Position   string `json:"position"`
	Department string `json:"department"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
}

// NewListingView starts at page 1 with the default page size.
func NewListingView() ListingView {
	return ListingView{Page: 1, PageSize: DefaultListingPageSize}
}

// SetSearch changes the name filter and returns to the first page.
func (v *ListingView) SetSearch(search string) {
	v.Search = search
	v.Page = 1
}

// SetPosition changes the position filter and returns to the first page.
func (v *ListingView) SetPosition(position string) {
	v.Position = position
	v.Page = 1
}

// SetDepartment changes the department filter and returns to the first page.
func (v *ListingView) SetDepartment(department string) {
	v.Department = department
	v.Page = 1
}

// ChangePage applies a pagination change. A size change keeps the requested page.
func (v *ListingView) ChangePage(page, size int) {
	if page < 1 {
		page = 1
	}
	v.Page = page
	if size > 0 {
		v.PageSize = size
	}
}

// ClearFilters drops every filter and returns to the first page.
func (v *ListingView) ClearFilters() {
	v.Search = ""
	v.Position = ""
	v.Department = ""
	v.Page = 1
}

// HasFilters reports whether any filter is set.
func (v ListingView) HasFilters() bool {
	return strings.TrimSpace(v.Search) != "" || strings.TrimSpace(v.Position) != "" || strings.TrimSpace(v.Department) != ""
}

// Query converts the view state into the zero-based backend query.
func (v ListingView) Query() models.PageQuery {
	page := v.Page
	if page < 1 {
		page = 1
	}
	size := v.PageSize
	if size <= 0 {
		size = DefaultListingPageSize
	}
	return models.PageQuery{
		Page:    page - 1,
		Size:    size,
		Name:    v.Search,
		Lavozim: v.Position,
		College: v.Department,
	}.Normalize()
}

// TeacherCard is one grid entry.
type TeacherCard struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Position   string `json:"position"`
	Department string `json:"department"`
	ImageURL   string `json:"imageUrl,omitempty"`
	Email      string `json:"email,omitempty"`
	DetailPath string `json:"detailPath"`
}

// ListingPagination drives the pagination control.
type ListingPagination struct {
	Current     int    `json:"current"`
	PageSize    int    `json:"pageSize"`
	Total       int64  `json:"total"`
	TotalPages  int    `json:"totalPages"`
	RangeLabel  string `json:"rangeLabel"`
	SizeOptions []int  `json:"sizeOptions"`
}

// ListingViewModel is everything the directory page renders.
type ListingViewModel struct {
	View              ListingView        `json:"view"`
	Loading           bool               `json:"loading"`
	Empty             bool               `json:"empty"`
	EmptyMessage      string             `json:"emptyMessage,omitempty"`
	Cards             []TeacherCard      `json:"cards"`
	PositionOptions   []models.Option    `json:"positionOptions"`
	DepartmentOptions []models.Option    `json:"departmentOptions"`
	ShowClearFilters  bool               `json:"showClearFilters"`
	Pagination        *ListingPagination `json:"pagination,omitempty"`
}

// listingState is the read side of TeacherOperations the view model needs.
type listingState interface {
	Teachers() []models.Teacher
	Total() int64
	TotalPages() int
	IsLoading() bool
}

// BuildListingViewModel renders the view state over the loaded listing.
func BuildListingViewModel(view ListingView, state listingState, positions, departments []models.LookupItem) ListingViewModel {
	query := view.Query()
	view.Page = query.Page + 1
	view.PageSize = query.Size

	vm := ListingViewModel{
		View:              view,
		Loading:           state.IsLoading(),
		Cards:             []TeacherCard{},
		PositionOptions:   NameOptions(positions),
		DepartmentOptions: NameOptions(departments),
		ShowClearFilters:  view.HasFilters(),
	}
	if vm.Loading {
		return vm
	}

	teachers := state.Teachers()
	if len(teachers) == 0 {
		vm.Empty = true
		vm.EmptyMessage = MsgNoTeachersFound
	}
	for _, t := range teachers {
		vm.Cards = append(vm.Cards, TeacherCard{
			ID:         t.ID,
			Name:       t.Name,
			Position:   t.Lavozim,
			Department: t.DepartmentName,
			ImageURL:   t.ImgURL,
			Email:      t.Email,
			DetailPath: fmt.Sprintf("/teachers/%d", t.ID),
		})
	}

	if total := state.Total(); total > 0 {
		vm.Pagination = &ListingPagination{
			Current:     view.Page,
			PageSize:    view.PageSize,
			Total:       total,
			TotalPages:  state.TotalPages(),
			RangeLabel:  RangeLabel(view.Page, view.PageSize, total),
			SizeOptions: append([]int(nil), ListingPageSizes...),
		}
	}
	return vm
}

// RangeLabel formats the "first-last / total ta" label shown next to the pagination control.
func RangeLabel(page, size int, total int64) string {
	if total <= 0 || size <= 0 {
		return fmt.Sprintf("0-0 / %d ta", total)
	}
	first := int64(page-1)*int64(size) + 1
	if first > total {
		first = total
	}
	last := int64(page) * int64(size)
	if last > total {
		last = total
	}
	return fmt.Sprintf("%d-%d / %d ta", first, last, total)
}

// EnvelopePagination converts the view model pagination to the response envelope shape.
func (vm ListingViewModel) EnvelopePagination() *models.Pagination {
	if vm.Pagination == nil {
		return nil
	}
	return &models.Pagination{
		Page:       vm.Pagination.Current,
		PageSize:   vm.Pagination.PageSize,
		TotalCount: vm.Pagination.Total,
		TotalPages: vm.Pagination.TotalPages,
	}
}
