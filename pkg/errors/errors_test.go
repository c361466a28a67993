package errors_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/ellisd4/tagsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestConfigError(t *testing.T) {
	t.Run("with component and field", func(t *testing.T) {
		err := pkgerrors.NewConfigError("sonarr", "api_key", "must be set")
		assert.Equal(t, "configuration incomplete for sonarr: api_key: must be set", err.Error())
		assert.True(t, pkgerrors.IsConfigurationIncomplete(err))
	})

	t.Run("without component", func(t *testing.T) {
		err := &pkgerrors.ConfigError{Message: "nothing configured"}
		assert.Equal(t, "configuration incomplete: nothing configured", err.Error())
	})

	t.Run("wrapped", func(t *testing.T) {
		err := fmt.Errorf("sync: %w", pkgerrors.NewConfigError("emby", "url", "must be set"))
		assert.True(t, pkgerrors.IsConfigurationIncomplete(err))
		assert.False(t, pkgerrors.IsUpstreamUnavailable(err))
	})
}

func TestUpstreamError(t *testing.T) {
	t.Run("with status code", func(t *testing.T) {
		err := &pkgerrors.UpstreamError{
			Source:     "sonarr",
			Endpoint:   "/api/v3/series",
			StatusCode: http.StatusUnauthorized,
			Message:    "unauthorized",
		}
		assert.Contains(t, err.Error(), "sonarr")
		assert.Contains(t, err.Error(), "401")
		assert.True(t, err.CredentialsRejected())
		assert.True(t, pkgerrors.IsUpstreamUnavailable(err))
	})

	t.Run("wrap keeps cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := pkgerrors.WrapUpstream("sonarr", "/api/v3/tag", 0, cause)
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, pkgerrors.ErrUpstreamUnavailable)

		var upstream *pkgerrors.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.False(t, upstream.CredentialsRejected())
	})

	t.Run("wrap nil", func(t *testing.T) {
		assert.NoError(t, pkgerrors.WrapUpstream("sonarr", "", 0, nil))
	})
}

func TestCatalogError(t *testing.T) {
	cause := errors.New("database is locked")
	err := pkgerrors.WrapCatalog("sqlite", "fetch items", cause)
	assert.Contains(t, err.Error(), "fetch items")
	assert.True(t, pkgerrors.IsCatalogUnavailable(err))
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, pkgerrors.WrapCatalog("sqlite", "fetch items", nil))
}

func TestMutationError(t *testing.T) {
	t.Run("with item name", func(t *testing.T) {
		err := &pkgerrors.MutationError{
			Kind:     "add",
			ItemID:   "42",
			ItemName: "Firefly",
			Label:    "sonarr-hd",
			Err:      pkgerrors.NewNotFoundError("item", "42"),
		}
		assert.Equal(t, `failed to add tag "sonarr-hd" on Firefly (42): item with ID 42 not found`, err.Error())
		assert.True(t, pkgerrors.IsMutationFailed(err))
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("without cause", func(t *testing.T) {
		err := &pkgerrors.MutationError{Kind: "remove", ItemID: "7", Label: "x"}
		assert.Equal(t, `failed to remove tag "x" on 7`, err.Error())
	})
}

func TestValidationError(t *testing.T) {
	err := pkgerrors.NewValidationError("concurrency", -1, "must be positive")
	assert.Equal(t, "validation failed for field concurrency: must be positive", err.Error())
	assert.True(t, pkgerrors.IsValidationError(err))

	bare := &pkgerrors.ValidationError{Message: "bad"}
	assert.Equal(t, "validation failed: bad", bare.Error())
}

func TestAPIError(t *testing.T) {
	err := &pkgerrors.APIError{Service: "emby", StatusCode: http.StatusNotFound, Message: "no such item"}
	assert.Contains(t, err.Error(), "emby")
	assert.True(t, pkgerrors.IsNotFound(err))

	other := &pkgerrors.APIError{Service: "emby", Message: "boom"}
	assert.Equal(t, "API error from emby: boom", other.Error())
	assert.False(t, pkgerrors.IsNotFound(other))
}

func TestWrapHelpers(t *testing.T) {
	cause := errors.New("eof")

	parseErr := pkgerrors.WrapParse("json", "response", cause)
	assert.Contains(t, parseErr.Error(), "json")
	assert.ErrorIs(t, parseErr, cause)
	assert.NoError(t, pkgerrors.WrapParse("json", "", nil))

	ioErr := pkgerrors.WrapIO("write", "/tmp/report.md", cause)
	assert.Contains(t, ioErr.Error(), "/tmp/report.md")
	assert.NoError(t, pkgerrors.WrapIO("write", "", nil))
}

func TestWrapCanceled(t *testing.T) {
	err := pkgerrors.WrapCanceled(context.Canceled)
	assert.True(t, pkgerrors.IsCanceled(err))
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, pkgerrors.ErrCanceled, pkgerrors.WrapCanceled(nil))
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		pkgerrors.ErrConfigurationIncomplete,
		pkgerrors.ErrUpstreamUnavailable,
		pkgerrors.ErrCatalogUnavailable,
		pkgerrors.ErrMutationFailed,
		pkgerrors.ErrRunInProgress,
		pkgerrors.ErrNotFound,
		pkgerrors.ErrInvalidInput,
		pkgerrors.ErrCanceled,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}
