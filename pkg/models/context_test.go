package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseResources_ReverseOrderExactlyOnce(t *testing.T) {
	nc := NewNodeExecutionContext("n", "t", "w", "e", nil, nil)

	var order []string

	for _, name := range []string{"first", "second", "third"} {
		name := name
		nc.AddResource(ResourceFunc(func() error {
			order = append(order, name)

			return nil
		}))
	}

	require.Equal(t, 3, nc.ResourceCount())
	require.NoError(t, nc.ReleaseResources())
	assert.Equal(t, []string{"third", "second", "first"}, order)

	// Releasing again must not close anything a second time.
	require.NoError(t, nc.ReleaseResources())
	assert.Equal(t, []string{"third", "second", "first"}, order)
	assert.Equal(t, 0, nc.ResourceCount())
}

func TestReleaseResources_CollectsAllErrors(t *testing.T) {
	nc := NewNodeExecutionContext("n", "t", "w", "e", nil, nil)

	errFirst := errors.New("first close failed")
	errSecond := errors.New("second close failed")

	nc.AddResource(ResourceFunc(func() error { return errFirst }))
	nc.AddResource(ResourceFunc(func() error { return nil }))
	nc.AddResource(ResourceFunc(func() error { return errSecond }))

	err := nc.ReleaseResources()
	require.Error(t, err)
	assert.ErrorIs(t, err, errFirst)
	assert.ErrorIs(t, err, errSecond)
}

func TestReleaseResources_EmptyContext(t *testing.T) {
	nc := NewNodeExecutionContext("n", "t", "w", "e", nil, nil)

	assert.NoError(t, nc.ReleaseResources())
}

func TestValidationResult(t *testing.T) {
	t.Run("valid by default", func(t *testing.T) {
		result := ValidResult()

		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
		assert.Empty(t, result.ErrorMessage())
	})

	t.Run("add error flips validity", func(t *testing.T) {
		result := ValidResult()
		result.AddError("url is required")
		result.AddError("method is invalid")

		assert.False(t, result.Valid)
		assert.Equal(t, "url is required; method is invalid", result.ErrorMessage())
	})

	t.Run("warnings keep validity", func(t *testing.T) {
		result := ValidResult()
		result.AddWarning("body on GET request")

		assert.True(t, result.Valid)
		assert.Equal(t, []string{"body on GET request"}, result.Warnings)
	})
}

func TestNodeExecutionResult_Terminal(t *testing.T) {
	assert.False(t, CompletedResult(nil).Terminal())
	assert.True(t, FailedResult("boom", nil).Terminal())
	assert.True(t, CancelledResult().Terminal())
}

func TestFailedResult_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	result := FailedResult(cause.Error(), cause)

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "connection refused", result.ErrorMessage)
	assert.ErrorIs(t, result.Err, cause)
}
