package validation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/validation"
	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

func TestNormalizeNodePayload(t *testing.T) {
	t.Run("trims and uppercases", func(t *testing.T) {
		got, err := validation.NormalizeNodePayload(validation.NodePayload{
			Name: "  Khartoum  ",
			Code: "test-reg-lower",
		})
		require.NoError(t, err)
		assert.Equal(t, "Khartoum", got.Name)
		require.NotNil(t, got.Code)
		assert.Equal(t, "TEST-REG-LOWER", *got.Code)
		assert.Equal(t, validation.NoDescription, got.Description)
	})

	t.Run("empty name fails", func(t *testing.T) {
		_, err := validation.NormalizeNodePayload(validation.NodePayload{Name: "   "})
		require.Error(t, err)
		assert.Equal(t, "Name is required", err.Error())
		assert.Equal(t, serrors.CodeValidation, serrors.CodeOf(err))
	})

	t.Run("invalid code characters fail", func(t *testing.T) {
		_, err := validation.NormalizeNodePayload(validation.NodePayload{
			Name: "Khartoum",
			Code: "bad code!",
		})
		require.Error(t, err)
		assert.Equal(t, "Code can only contain letters, numbers, hyphens, and underscores", err.Error())
	})

	t.Run("blank code normalizes to absent", func(t *testing.T) {
		got, err := validation.NormalizeNodePayload(validation.NodePayload{
			Name: "Khartoum",
			Code: "   ",
		})
		require.NoError(t, err)
		assert.Nil(t, got.Code)
	})

	t.Run("description is trimmed", func(t *testing.T) {
		got, err := validation.NormalizeNodePayload(validation.NodePayload{
			Name:        "Khartoum",
			Description: "  river state  ",
		})
		require.NoError(t, err)
		assert.Equal(t, "river state", got.Description)
	})
}

func TestNormalizeCodeIdempotent(t *testing.T) {
	first, err := validation.NormalizeCode("test-reg-lower")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := validation.NormalizeCode(*first)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}

func TestCheckOptimisticLock(t *testing.T) {
	stored := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("nil last-seen skips the check", func(t *testing.T) {
		assert.NoError(t, validation.CheckOptimisticLock(nil, stored))
	})

	t.Run("within tolerance passes", func(t *testing.T) {
		seen := stored.Add(700 * time.Millisecond)
		assert.NoError(t, validation.CheckOptimisticLock(&seen, stored))
	})

	t.Run("stale timestamp fails", func(t *testing.T) {
		seen := stored.Add(-5 * time.Second)
		err := validation.CheckOptimisticLock(&seen, stored)
		require.Error(t, err)
		assert.Equal(t, serrors.CodeOptimisticLock, serrors.CodeOf(err))
	})
}
