package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/teachers-admin/internal/models"
	"github.com/noah-isme/teachers-admin/internal/repository"
	appErrors "github.com/noah-isme/teachers-admin/pkg/errors"
)

func TestFilterOptionsIsCaseInsensitive(t *testing.T) {
	options := []models.Option{
		{Value: "1", Label: "Fizika"},
		{Value: "2", Label: "Matematika"},
		{Value: "3", Label: "Amaliy fizika"},
	}

	assert.Equal(t, []models.Option{options[0], options[2]}, FilterOptions(options, "FIZ"))
	assert.Equal(t, options, FilterOptions(options, "  "))
	assert.Empty(t, FilterOptions(options, "kimyo"))
}

func TestLookupServiceCachesLists(t *testing.T) {
	backend := &fakeBackend{
		departments: []models.LookupItem{{ID: 1, Name: "Fizika"}, {ID: 2, Name: "Kimyo"}},
		positions:   []models.LookupItem{{ID: 3, Name: "Dotsent"}},
	}
	cache := NewCacheService(repository.NewMemoryCacheRepository(), nil, 0, nil, true)
	svc := NewLookupService(backend, cache, 0, nil)
	ctx := context.Background()

	departments, err := svc.List(ctx, models.LookupDepartments)
	require.NoError(t, err)
	assert.Len(t, departments, 2)

	_, err = svc.List(ctx, models.LookupDepartments)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.lookupCalls)

	options, err := svc.Options(ctx, models.LookupDepartments, "kim", false)
	require.NoError(t, err)
	assert.Equal(t, []models.Option{{Value: "2", Label: "Kimyo"}}, options)

	positions, err := svc.Options(ctx, models.LookupPositions, "", false)
	require.NoError(t, err)
	assert.Equal(t, []models.Option{{Value: "3", Label: "Dotsent"}}, positions)

	byName, err := svc.Options(ctx, models.LookupDepartments, "FIZ", true)
	require.NoError(t, err)
	assert.Equal(t, []models.Option{{Value: "Fizika", Label: "Fizika"}}, byName)
	assert.Equal(t, 2, backend.lookupCalls)
}

func TestLookupServiceUnknownKind(t *testing.T) {
	svc := NewLookupService(&fakeBackend{}, nil, 0, nil)
	_, err := svc.List(context.Background(), models.LookupKind("room"))
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestHasOption(t *testing.T) {
	options := IDOptions([]models.LookupItem{{ID: 7, Name: "Fizika"}})
	assert.True(t, HasOption(options, "7"))
	assert.False(t, HasOption(options, "Fizika"))
}
