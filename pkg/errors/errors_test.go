package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "github.com/releasetools/fixvet/pkg/errors"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestConfigError(t *testing.T) {
	t.Run("with component", func(t *testing.T) {
		err := &pkgerrors.ConfigError{
			Component: "jira",
			Message:   "missing credentials",
		}
		assert.Equal(t, "configuration error in jira: missing credentials", err.Error())
	})

	t.Run("without component", func(t *testing.T) {
		err := &pkgerrors.ConfigError{Message: "bad config"}
		assert.Equal(t, "configuration error: bad config", err.Error())
	})

	t.Run("wraps sentinel", func(t *testing.T) {
		err := pkgerrors.NewConfigError("overlay", "start_ref missing", pkgerrors.ErrMalformedOverlay)
		assert.True(t, errors.Is(err, pkgerrors.ErrMalformedOverlay))
	})
}

func TestTrackerError(t *testing.T) {
	t.Run("with status code", func(t *testing.T) {
		err := &pkgerrors.TrackerError{
			Endpoint:   "/rest/api/2/search",
			StatusCode: 429,
			Message:    "rate limit exceeded",
		}
		assert.Contains(t, err.Error(), "/rest/api/2/search")
		assert.Contains(t, err.Error(), "429")
		assert.True(t, pkgerrors.IsRateLimited(err))
	})

	t.Run("server error maps to unavailable", func(t *testing.T) {
		err := pkgerrors.NewTrackerError("/rest/api/2/search", 503, "maintenance")
		assert.True(t, pkgerrors.IsTrackerUnavailable(err))
		assert.False(t, pkgerrors.IsRateLimited(err))
	})

	t.Run("client error matches neither", func(t *testing.T) {
		err := pkgerrors.NewTrackerError("/rest/api/2/issue/HADOOP-1", 404, "no such issue")
		assert.False(t, pkgerrors.IsTrackerUnavailable(err))
		assert.False(t, pkgerrors.IsRateLimited(err))
	})

	t.Run("with wrapped error", func(t *testing.T) {
		base := errors.New("connection timeout")
		err := &pkgerrors.TrackerError{
			Endpoint: "/rest/api/2/search",
			Message:  "request failed",
			Err:      base,
		}
		assert.Equal(t, base, err.Unwrap())
	})
}

func TestAuthenticationError(t *testing.T) {
	err := &pkgerrors.AuthenticationError{
		Method:  "basic",
		Message: "JIRA_USER and JIRA_PASSWORD must be set",
	}
	assert.Contains(t, err.Error(), "basic")
	assert.True(t, pkgerrors.IsCredentialsRequired(err))
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "start_ref",
			Message: "cannot be empty",
		}
		assert.Equal(t, "validation failed for field start_ref: cannot be empty", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid overlay"}
		assert.Equal(t, "validation failed: invalid overlay", err.Error())
	})
}

func TestWrapHelpers(t *testing.T) {
	t.Run("nil passthrough", func(t *testing.T) {
		assert.Nil(t, pkgerrors.WrapParse("yaml", "metadata.yaml", nil))
		assert.Nil(t, pkgerrors.WrapIO("read", "changes.log", nil))
	})

	t.Run("parse wrap", func(t *testing.T) {
		base := errors.New("unexpected token")
		err := pkgerrors.WrapParse("yaml", "metadata.yaml", base)
		assert.Contains(t, err.Error(), "metadata.yaml")
		assert.True(t, errors.Is(err, base))
	})

	t.Run("io wrap", func(t *testing.T) {
		base := errors.New("permission denied")
		err := pkgerrors.WrapIO("write", "changes.log", base)
		assert.Contains(t, err.Error(), "changes.log")
		assert.True(t, errors.Is(err, base))
	})
}
