package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/teachers-admin/internal/client"
	"github.com/noah-isme/teachers-admin/internal/models"
	appErrors "github.com/noah-isme/teachers-admin/pkg/errors"
)

const (
	teacherListCachePrefix  = "teachers:list:"
	teacherListCachePattern = teacherListCachePrefix + "*"
)

type teacherBackend interface {
	ListTeachers(ctx context.Context, query models.PageQuery) (*models.TeacherPage, error)
	CreateTeacher(ctx context.Context, input models.TeacherCreateInput) (*models.Teacher, error)
	UploadFile(ctx context.Context, kind client.UploadKind, file client.File) (string, error)
}

// TeacherService fronts the teachers backend with a deduplicated, cached listing.
type TeacherService struct {
	backend teacherBackend
	cache   *CacheService
	ttl     time.Duration
	group   singleflight.Group
	logger  *zap.Logger

	// generation advances on every listing invalidation. Fetches started under an
	// older generation neither share a flight with newer callers nor write to cache.
	generation atomic.Uint64
}

// NewTeacherService constructs a TeacherService. cache may be nil.
func NewTeacherService(backend teacherBackend, cache *CacheService, ttl time.Duration, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{backend: backend, cache: cache, ttl: ttl, logger: logger}
}

// List returns one page of teachers for the normalized query and reports whether it was
// served from cache. Concurrent identical queries share one backend call.
func (s *TeacherService) List(ctx context.Context, query models.PageQuery) (*models.TeacherPage, bool, error) {
	query = query.Normalize()
	key := teacherListCacheKey(query)

	var cached models.TeacherPage
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		if cached.Body == nil {
			cached.Body = []models.Teacher{}
		}
		return &cached, true, nil
	}

	gen := s.generation.Load()
	flight := key + "#" + strconv.FormatUint(gen, 10)
	value, err, _ := s.group.Do(flight, func() (interface{}, error) {
		page, err := s.backend.ListTeachers(ctx, query)
		if err != nil {
			return nil, err
		}
		s.storePage(ctx, key, gen, page)
		return page, nil
	})
	if err != nil {
		return nil, false, err
	}

	page := *value.(*models.TeacherPage)
	page.Body = append([]models.Teacher(nil), page.Body...)
	return &page, false, nil
}

// storePage caches page unless a listing invalidation happened since the fetch began.
func (s *TeacherService) storePage(ctx context.Context, key string, gen uint64, page *models.TeacherPage) {
	if s.generation.Load() != gen {
		s.logger.Debug("skip stale teachers page", zap.String("key", key))
		return
	}
	if err := s.cache.Set(ctx, key, page, s.ttl); err != nil {
		s.logger.Warn("cache teachers page", zap.String("key", key), zap.Error(err))
		return
	}
	// An invalidation may have landed between the check and the write.
	if s.generation.Load() != gen {
		if err := s.cache.Drop(ctx, key); err != nil {
			s.logger.Warn("drop stale teachers page", zap.String("key", key), zap.Error(err))
		}
	}
}

// Create registers a teacher. Listing invalidation is left to the caller's success path.
func (s *TeacherService) Create(ctx context.Context, input models.TeacherCreateInput) (*models.Teacher, error) {
	return s.backend.CreateTeacher(ctx, input)
}

// Upload stores an attachment and returns its URL.
func (s *TeacherService) Upload(ctx context.Context, kind client.UploadKind, file client.File) (string, error) {
	return s.backend.UploadFile(ctx, kind, file)
}

// InvalidateListings drops every cached listing page. Listing fetches still in flight
// are detached so their results are not cached or shared with later callers.
func (s *TeacherService) InvalidateListings(ctx context.Context) error {
	s.generation.Add(1)
	return s.cache.Invalidate(ctx, teacherListCachePattern)
}

func teacherListCacheKey(query models.PageQuery) string {
	sum := sha1.Sum([]byte(query.Values().Encode()))
	return teacherListCachePrefix + hex.EncodeToString(sum[:])
}

// UpstreamError maps a backend failure onto the typed error returned to HTTP callers.
// The backend message is kept when present.
func UpstreamError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	message := client.BackendMessage(err)
	if message == "" {
		message = fallback
	}
	status := appErrors.ErrUpstream.Status
	switch upstream := client.StatusOf(err); {
	case upstream == http.StatusUnauthorized:
		status = http.StatusUnauthorized
	case upstream == http.StatusForbidden:
		status = http.StatusForbidden
	case upstream >= 400 && upstream < 500 && upstream != http.StatusNotFound:
		status = http.StatusBadRequest
	}
	return appErrors.Wrap(err, appErrors.ErrUpstream.Code, status, message)
}
