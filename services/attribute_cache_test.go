package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
	"github.com/EhsanMalik360/productsmappingapp-sub002/services"
)

// ---- mock attribute repo ----

type stubAttributeRepo struct {
	defs  []models.AttributeDefinition
	err   error
	calls int
}

func (s *stubAttributeRepo) ListByEntityType(ctx context.Context, entityType models.JobType) ([]models.AttributeDefinition, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.defs, nil
}

func TestAttributeCache_FallsThroughWithoutRedis(t *testing.T) {
	repo := &stubAttributeRepo{defs: []models.AttributeDefinition{
		{ID: "a1", Name: "Weight", Kind: models.AttributeNumber},
	}}
	cache := services.NewAttributeCache(nil, repo)

	defs, err := cache.Definitions(context.Background(), models.JobTypeProduct)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Weight", defs[0].Name)
	assert.Equal(t, 1, repo.calls)
}

func TestAttributeCache_RepoErrorPropagates(t *testing.T) {
	repo := &stubAttributeRepo{err: errors.New("mongo down")}
	cache := services.NewAttributeCache(nil, repo)

	_, err := cache.Definitions(context.Background(), models.JobTypeSupplier)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attribute definitions")
}
