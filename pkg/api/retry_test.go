package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/signoff/pkg/api"
)

func TestRetryConfigValidation(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		rc := &api.RetryConfig{
			MaxRetries:  3,
			InitBackoff: api.Second,
			MaxBackoff:  30 * api.Second,
			BackoffType: api.BackoffTypeExponential,
		}
		assert.NoError(t, rc.Validate())
	})

	t.Run("zero_value_valid", func(t *testing.T) {
		assert.NoError(t, (&api.RetryConfig{}).Validate())
	})

	t.Run("negative_backoff", func(t *testing.T) {
		rc := &api.RetryConfig{InitBackoff: -1}
		assert.ErrorIs(t, rc.Validate(), api.ErrNegativeBackoff)
	})

	t.Run("max_below_initial", func(t *testing.T) {
		rc := &api.RetryConfig{
			InitBackoff: 10 * api.Second,
			MaxBackoff:  api.Second,
		}
		assert.ErrorIs(t, rc.Validate(), api.ErrMaxBackoffTooSmall)
	})

	t.Run("invalid_backoff_type", func(t *testing.T) {
		rc := &api.RetryConfig{BackoffType: "random"}
		assert.ErrorIs(t, rc.Validate(), api.ErrInvalidBackoffType)
	})
}
