// Package repotest holds the behaviour every ConnectionRepository implementation must share.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"imet-backend/internal/domain"
	"imet-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty repository.
type Factory func(t *testing.T) repository.ConnectionRepository

// Sample builds a version 1 record created at created.
func Sample(id, name string, created time.Time) domain.Connection {
	return domain.NewConnection(id, domain.ConnectionFields{
		Name:            domain.StringPtr(name),
		MeetingLocation: domain.StringPtr("Cafe"),
		Interests:       []string{"Hiking", "NBA"},
		Tags:            []string{"#sports"},
		FunFacts:        []string{"Has a pet tortoise"},
		Email:           domain.StringPtr(name + "@example.com"),
	}, created)
}

// Run exercises the repository contract against newRepo.
func Run(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Should round-trip an inserted record", func(t *testing.T) {
		repo := newRepo(t)
		conn := Sample("c1", "Jane", base)

		require.NoError(t, repo.Insert(ctx, conn))

		got, err := repo.FindByID(ctx, "c1")
		require.NoError(t, err)
		assertSameConnection(t, conn, *got)
	})

	t.Run("Should keep absent optional fields absent", func(t *testing.T) {
		repo := newRepo(t)
		conn := domain.NewConnection("bare", domain.ConnectionFields{}, base)

		require.NoError(t, repo.Insert(ctx, conn))

		got, err := repo.FindByID(ctx, "bare")
		require.NoError(t, err)
		assert.Nil(t, got.Name)
		assert.Nil(t, got.Notes)
		assert.Empty(t, got.Interests)
		assert.Empty(t, got.Tags)
	})

	t.Run("Should reject duplicate ids", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, Sample("c1", "Jane", base)))

		err := repo.Insert(ctx, Sample("c1", "Other", base))
		assert.True(t, repository.IsConflict(err), "got %v", err)
	})

	t.Run("Should report missing records", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindByID(ctx, "missing")
		assert.True(t, repository.IsNotFound(err), "got %v", err)

		err = repo.Delete(ctx, "missing")
		assert.True(t, repository.IsNotFound(err), "got %v", err)

		err = repo.Save(ctx, Sample("missing", "Ghost", base), 1)
		assert.True(t, repository.IsNotFound(err), "got %v", err)
	})

	t.Run("Should save when the version matches", func(t *testing.T) {
		repo := newRepo(t)
		conn := Sample("c1", "Jane", base)
		require.NoError(t, repo.Insert(ctx, conn))

		next := conn.Replace(domain.ConnectionFields{Notes: domain.StringPtr("second meeting")}, base.Add(time.Hour))
		require.NoError(t, repo.Save(ctx, next, conn.Version))

		got, err := repo.FindByID(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, 2, got.Version)
		assert.Nil(t, got.Name)
		require.NotNil(t, got.Notes)
		assert.Equal(t, "second meeting", *got.Notes)
		assert.True(t, base.Equal(got.CreatedAt))
	})

	t.Run("Should reject a stale version", func(t *testing.T) {
		repo := newRepo(t)
		conn := Sample("c1", "Jane", base)
		require.NoError(t, repo.Insert(ctx, conn))

		first := conn.Replace(conn.ConnectionFields, base.Add(time.Minute))
		require.NoError(t, repo.Save(ctx, first, 1))

		stale := conn.Replace(domain.ConnectionFields{}, base.Add(2*time.Minute))
		err := repo.Save(ctx, stale, 1)
		assert.True(t, repository.IsConflict(err), "got %v", err)
	})

	t.Run("Should delete records", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, Sample("c1", "Jane", base)))

		require.NoError(t, repo.Delete(ctx, "c1"))

		_, err := repo.FindByID(ctx, "c1")
		assert.True(t, repository.IsNotFound(err))
	})

	t.Run("Should list by creation time then id", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, Sample("b", "B", base)))
		require.NoError(t, repo.Insert(ctx, Sample("c", "C", base.Add(-time.Hour))))
		require.NoError(t, repo.Insert(ctx, Sample("a", "A", base)))

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].ID, list[1].ID, list[2].ID})
	})

	t.Run("Should let exactly one concurrent writer win a version", func(t *testing.T) {
		repo := newRepo(t)
		conn := Sample("c1", "Jane", base)
		require.NoError(t, repo.Insert(ctx, conn))

		const writers = 8
		var wg sync.WaitGroup
		errs := make([]error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				next := conn.Replace(domain.ConnectionFields{Notes: domain.StringPtr(fmt.Sprintf("writer %d", i))}, base.Add(time.Minute))
				errs[i] = repo.Save(ctx, next, conn.Version)
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			assert.True(t, repository.IsConflict(err), "got %v", err)
		}
		assert.Equal(t, 1, wins)
	})
}

func assertSameConnection(t *testing.T, want, got domain.Connection) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.ConnectionFields, got.ConnectionFields)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt %v != %v", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updatedAt %v != %v", want.UpdatedAt, got.UpdatedAt)
	assert.Equal(t, want.Version, got.Version)
}
