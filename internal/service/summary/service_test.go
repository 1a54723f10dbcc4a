package summary

import (
	"context"
	"errors"
	"testing"

	"imet-backend/internal/service/llm"
	appErrors "imet-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Run("Should parse the generated narrative", func(t *testing.T) {
		provider := llm.NewMockProvider()
		provider.QueueResponse("Name: Jane Doe\nLocation: Blue Bottle\nInterests & Goals:\n- software\n- nba\n\nFollow-up Items: coffee")
		svc := NewService(provider, DefaultOptions(), nil)

		result, err := svc.Summarize(context.Background(), "  met Jane at the cafe  ")

		require.NoError(t, err)
		require.NotNil(t, result.Fields.Name)
		assert.Equal(t, "Jane Doe", *result.Fields.Name)
		assert.Equal(t, []string{"software", "nba"}, result.Fields.Interests)
		require.NotNil(t, result.Fields.RawInput)
		assert.Equal(t, "met Jane at the cafe", *result.Fields.RawInput)
		assert.Contains(t, provider.Prompts()[0], "met Jane at the cafe")
	})

	t.Run("Should reject blank input", func(t *testing.T) {
		svc := NewService(llm.NewMockProvider(), DefaultOptions(), nil)

		_, err := svc.Summarize(context.Background(), " \n ")

		assert.True(t, appErrors.IsValidation(err))
		assert.Equal(t, "No input text provided", appErrors.Message(err))
	})

	t.Run("Should report provider failures as upstream errors", func(t *testing.T) {
		provider := llm.NewMockProvider()
		provider.QueueError(errors.New("connection reset"))
		svc := NewService(provider, DefaultOptions(), nil)

		_, err := svc.Summarize(context.Background(), "met someone")

		assert.True(t, appErrors.IsUpstream(err))
	})

	t.Run("Should treat empty output as an upstream failure", func(t *testing.T) {
		provider := llm.NewMockProvider()
		provider.QueueResponse("   ")
		svc := NewService(provider, DefaultOptions(), nil)

		_, err := svc.Summarize(context.Background(), "met someone")

		assert.True(t, appErrors.IsUpstream(err))
	})

	t.Run("Should fail when the provider is unavailable", func(t *testing.T) {
		provider := llm.NewMockProvider()
		provider.SetAvailable(false)
		svc := NewService(provider, DefaultOptions(), nil)

		_, err := svc.Summarize(context.Background(), "met someone")

		assert.True(t, appErrors.IsUpstream(err))
		assert.False(t, svc.IsAvailable())
	})
}
