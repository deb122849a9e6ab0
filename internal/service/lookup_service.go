package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/teachers-admin/internal/models"
	appErrors "github.com/noah-isme/teachers-admin/pkg/errors"
)

type lookupBackend interface {
	ListDepartments(ctx context.Context) ([]models.LookupItem, error)
	ListPositions(ctx context.Context) ([]models.LookupItem, error)
}

// LookupService serves the department and position lists offered by the creation form.
type LookupService struct {
	backend lookupBackend
	cache   *CacheService
	ttl     time.Duration
	group   singleflight.Group
	logger  *zap.Logger
}

// NewLookupService constructs a LookupService. cache may be nil.
func NewLookupService(backend lookupBackend, cache *CacheService, ttl time.Duration, logger *zap.Logger) *LookupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{backend: backend, cache: cache, ttl: ttl, logger: logger}
}

// List returns the lookup items of kind.
func (s *LookupService) List(ctx context.Context, kind models.LookupKind) ([]models.LookupItem, error) {
	var fetch func(context.Context) ([]models.LookupItem, error)
	switch kind {
	case models.LookupDepartments:
		fetch = s.backend.ListDepartments
	case models.LookupPositions:
		fetch = s.backend.ListPositions
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown lookup kind "+strconv.Quote(string(kind)))
	}

	key := "lookups:" + string(kind)
	var cached []models.LookupItem
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		items, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []models.LookupItem{}
		}
		if err := s.cache.Set(ctx, key, items, s.ttl); err != nil {
			s.logger.Warn("cache lookup list", zap.String("kind", string(kind)), zap.Error(err))
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]models.LookupItem(nil), value.([]models.LookupItem)...), nil
}

// Options lists kind as select options filtered by query. Option values are item ids for
// the create form, or item names when byName is set for the listing filters.
func (s *LookupService) Options(ctx context.Context, kind models.LookupKind, query string, byName bool) ([]models.Option, error) {
	items, err := s.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	if byName {
		return FilterOptions(NameOptions(items), query), nil
	}
	return FilterOptions(IDOptions(items), query), nil
}

// IDOptions maps lookup items to options whose value is the item id.
func IDOptions(items []models.LookupItem) []models.Option {
	out := make([]models.Option, 0, len(items))
	for _, item := range items {
		out = append(out, models.Option{Value: strconv.FormatInt(item.ID, 10), Label: item.Name})
	}
	return out
}

// NameOptions maps lookup items to options whose value is the item name, as the listing
// filters match by label.
func NameOptions(items []models.LookupItem) []models.Option {
	out := make([]models.Option, 0, len(items))
	for _, item := range items {
		out = append(out, models.Option{Value: item.Name, Label: item.Name})
	}
	return out
}

// FilterOptions keeps options whose label contains query, ignoring case. A blank query keeps all.
func FilterOptions(options []models.Option, query string) []models.Option {
	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Option, 0, len(options))
	for _, opt := range options {
		if needle == "" || strings.Contains(strings.ToLower(opt.Label), needle) {
			out = append(out, opt)
		}
	}
	return out
}

// HasOption reports whether value is one of the offered options.
func HasOption(options []models.Option, value string) bool {
	for _, opt := range options {
		if opt.Value == value {
			return true
		}
	}
	return false
}
