package capture

import (
	"context"
	"testing"

	"imet-backend/internal/domain"
	"imet-backend/internal/repository/mocks"
	"imet-backend/internal/service/connection"
	"imet-backend/internal/service/llm"
	"imet-backend/internal/service/summary"
	appErrors "imet-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapture(t *testing.T) {
	ctx := context.Background()

	newService := func(provider *llm.MockProvider) (*Service, *mocks.MockRepository) {
		repo := mocks.NewMockRepository()
		conns := connection.NewService(repo, nil, nil, nil)
		return NewService(summary.NewService(provider, summary.DefaultOptions(), nil), conns, nil), repo
	}

	t.Run("Should store the parsed connection", func(t *testing.T) {
		provider := llm.NewMockProvider()
		provider.QueueResponse("Name: Jane Doe\nLocation: Blue Bottle\nInterests: NBA, software")
		svc, repo := newService(provider)

		res, err := svc.Capture(ctx, "met Jane at Blue Bottle", nil)
		require.NoError(t, err)

		assert.Contains(t, res.Summary, "Jane Doe")
		require.NotNil(t, res.Connection.Name)
		assert.Equal(t, "Jane Doe", *res.Connection.Name)
		assert.Equal(t, []string{"NBA", "software"}, res.Connection.Interests)
		assert.Equal(t, "met Jane at Blue Bottle", *res.Connection.RawInput)

		stored, err := repo.FindByID(ctx, res.Connection.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Version)
	})

	t.Run("Should apply overrides before storing", func(t *testing.T) {
		provider := llm.NewMockProvider()
		provider.QueueResponse("Name: Jane Doe")
		svc, _ := newService(provider)

		res, err := svc.Capture(ctx, "met Jane", func(f *domain.ConnectionFields) {
			f.Email = domain.StringPtr("jane@example.com")
		})
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", *res.Connection.Email)
	})

	t.Run("Should store nothing when summarization fails", func(t *testing.T) {
		provider := llm.NewMockProvider()
		provider.SetAvailable(false)
		svc, repo := newService(provider)

		_, err := svc.Capture(ctx, "met Jane", nil)
		assert.True(t, appErrors.IsUpstream(err))
		assert.Equal(t, 0, repo.Calls("Insert"))
	})
}
