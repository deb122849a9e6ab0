package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/noah-isme/teachers-admin/internal/client"
	"github.com/noah-isme/teachers-admin/internal/models"
	"github.com/noah-isme/teachers-admin/internal/repository"
)

type fakeBackend struct {
	mu          sync.Mutex
	teachers    []models.Teacher
	calls       []string
	listCalls   int
	created     []models.TeacherCreateInput
	uploadErr   map[client.UploadKind]error
	failOnName  string
	createErr   error
	listErr     error
	departments []models.LookupItem
	positions   []models.LookupItem
	lookupCalls int
}

func (f *fakeBackend) ListTeachers(ctx context.Context, query models.PageQuery) (*models.TeacherPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	query = query.Normalize()
	var matched []models.Teacher
	for _, t := range f.teachers {
		if query.Name != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(query.Name)) {
			continue
		}
		if query.Lavozim != "" && t.Lavozim != query.Lavozim {
			continue
		}
		if query.College != "" && t.DepartmentName != query.College {
			continue
		}
		matched = append(matched, t)
	}
	start := query.Page * query.Size
	end := start + query.Size
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}
	totalPages := (len(matched) + query.Size - 1) / query.Size
	return &models.TeacherPage{
		Page:          query.Page,
		Size:          query.Size,
		TotalPage:     totalPages,
		TotalElements: int64(len(matched)),
		Body:          append([]models.Teacher{}, matched[start:end]...),
	}, nil
}

// gatedBackend holds its first listing call until gate closes. The page is read from
// the wrapped backend before blocking, so it reflects the state when the call began.
type gatedBackend struct {
	*fakeBackend
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func newGatedBackend(inner *fakeBackend) *gatedBackend {
	return &gatedBackend{fakeBackend: inner, gate: make(chan struct{}), entered: make(chan struct{})}
}

func (g *gatedBackend) ListTeachers(ctx context.Context, query models.PageQuery) (*models.TeacherPage, error) {
	page, err := g.fakeBackend.ListTeachers(ctx, query)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.gate
	}
	return page, err
}

func (f *fakeBackend) listCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeBackend) CreateTeacher(ctx context.Context, input models.TeacherCreateInput) (*models.Teacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, input)
	teacher := models.Teacher{ID: int64(len(f.teachers) + 1), Name: input.FullName, Email: input.Email, ImgURL: input.ImgURL}
	f.teachers = append(f.teachers, teacher)
	return &teacher, nil
}

func (f *fakeBackend) UploadFile(ctx context.Context, kind client.UploadKind, file client.File) (string, error) {
	data, _ := io.ReadAll(file.Content)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("upload_%s:%s", kind, file.Name))
	if err := f.uploadErr[kind]; err != nil && (f.failOnName == "" || f.failOnName == file.Name) {
		return "", err
	}
	return fmt.Sprintf("/files/%s/%s?%d", kind, file.Name, len(data)), nil
}

func (f *fakeBackend) ListDepartments(ctx context.Context) ([]models.LookupItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupCalls++
	return f.departments, nil
}

func (f *fakeBackend) ListPositions(ctx context.Context) ([]models.LookupItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupCalls++
	return f.positions, nil
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) uploadCalls() []string {
	var out []string
	for _, c := range f.callLog() {
		if strings.HasPrefix(c, "upload_") {
			out = append(out, c)
		}
	}
	return out
}

func newCachedTeacherService(backend teacherBackend) *TeacherService {
	cache := NewCacheService(repository.NewMemoryCacheRepository(), NewMetricsService(), 0, nil, true)
	return NewTeacherService(backend, cache, 0, nil)
}

func seedTeachers(n int) []models.Teacher {
	out := make([]models.Teacher, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.Teacher{ID: int64(i), Name: fmt.Sprintf("Teacher %02d", i), Lavozim: "Dotsent", DepartmentName: "Fizika"})
	}
	return out
}
