//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/doclink-ai/doclink/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := newIntegrationPool(ctx, t)
	userRepo := NewUserRepository(pool)
	domainRepo := NewDomainRepository(pool)

	u := seedUser(ctx, t, userRepo)
	d := seedDomain(ctx, t, domainRepo, u.ID, domain.DomainTypeUser)

	got, err := domainRepo.Get(ctx, u.ID, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, d.Name, got.Name)
	assert.Equal(t, domain.DomainTypeUser, got.Type)
}

func TestDomainRepository_Get_WrongUser(t *testing.T) {
	ctx := context.Background()
	pool := newIntegrationPool(ctx, t)
	userRepo := NewUserRepository(pool)
	domainRepo := NewDomainRepository(pool)

	owner := seedUser(ctx, t, userRepo)
	other := seedUser(ctx, t, userRepo)
	d := seedDomain(ctx, t, domainRepo, owner.ID, domain.DomainTypeUser)

	got, err := domainRepo.Get(ctx, other.ID, d.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDomainRepository_Rename(t *testing.T) {
	ctx := context.Background()
	pool := newIntegrationPool(ctx, t)
	userRepo := NewUserRepository(pool)
	domainRepo := NewDomainRepository(pool)

	u := seedUser(ctx, t, userRepo)
	d := seedDomain(ctx, t, domainRepo, u.ID, domain.DomainTypeUser)

	require.NoError(t, domainRepo.Rename(ctx, d.ID, "Archive"))

	got, err := domainRepo.Get(ctx, u.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Archive", got.Name)
}

func TestDomainRepository_Rename_Missing(t *testing.T) {
	ctx := context.Background()
	pool := newIntegrationPool(ctx, t)
	domainRepo := NewDomainRepository(pool)

	err := domainRepo.Rename(ctx, uuid.NewString(), "Archive")
	assert.ErrorIs(t, err, domain.ErrDomainNotFound)
}

func TestDomainRepository_Delete_CascadesToContent(t *testing.T) {
	ctx := context.Background()
	pool := newIntegrationPool(ctx, t)
	userRepo := NewUserRepository(pool)
	domainRepo := NewDomainRepository(pool)
	fileRepo := NewFileRepository(pool)

	u := seedUser(ctx, t, userRepo)
	d := seedDomain(ctx, t, domainRepo, u.ID, domain.DomainTypeUser)
	seedFileWithContent(ctx, t, fileRepo, u.ID, d.ID)

	outcome, err := domainRepo.Delete(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeleteDomainDeleted, outcome)

	files, err := fileRepo.ListByDomain(ctx, u.ID, d.ID)
	require.NoError(t, err)
	assert.Empty(t, files)

	count, err := fileRepo.CountByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDomainRepository_Delete_DefaultProtected(t *testing.T) {
	ctx := context.Background()
	pool := newIntegrationPool(ctx, t)
	userRepo := NewUserRepository(pool)
	domainRepo := NewDomainRepository(pool)

	u := seedUser(ctx, t, userRepo)
	d := seedDomain(ctx, t, domainRepo, u.ID, domain.DomainTypeDefault)

	outcome, err := domainRepo.Delete(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeleteDomainProtected, outcome)

	got, err := domainRepo.Get(ctx, u.ID, d.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestDomainRepository_Delete_Missing(t *testing.T) {
	ctx := context.Background()
	pool := newIntegrationPool(ctx, t)
	domainRepo := NewDomainRepository(pool)

	outcome, err := domainRepo.Delete(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, domain.DeleteDomainNotFound, outcome)
}

func TestDomainRepository_ListByUser(t *testing.T) {
	ctx := context.Background()
	pool := newIntegrationPool(ctx, t)
	userRepo := NewUserRepository(pool)
	domainRepo := NewDomainRepository(pool)

	u := seedUser(ctx, t, userRepo)
	seedDomain(ctx, t, domainRepo, u.ID, domain.DomainTypeDefault)
	seedDomain(ctx, t, domainRepo, u.ID, domain.DomainTypeUser)

	list, err := domainRepo.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	count, err := domainRepo.CountByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
