package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapAndIsCode(t *testing.T) {
	base := errors.New("connection reset")
	err := fmt.Errorf("load recipe: %w", Wrap(base, CodeInternal, "get entity failed"))

	require.True(t, IsCode(err, CodeInternal))
	require.False(t, IsCode(err, CodeNotFound))
	require.ErrorIs(t, err, base)
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, CodeUnknown, CodeOf(base))
}

func TestInvalidCarriesFields(t *testing.T) {
	err := Invalid("price", "Ensure that there are no more than 2 decimal places.").
		WithField("title", "This field is required.")

	require.True(t, IsCode(err, CodeInvalid))
	assert.Len(t, err.Fields, 2)
	assert.Equal(t,
		"invalid: validation failed (price: Ensure that there are no more than 2 decimal places.; title: This field is required.)",
		err.Error())
}

func TestNilAppError(t *testing.T) {
	var e *AppError
	assert.Equal(t, "<nil>", e.Error())
}
