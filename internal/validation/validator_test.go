package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/shipment-report/internal/config"
)

func TestValidateHeaders(t *testing.T) {
	fields := config.Default().Fields
	full := fields.Essential()

	t.Run("all essential columns", func(t *testing.T) {
		res := ValidateHeaders(append([]string{"Email"}, full...), fields)
		assert.True(t, res.IsValid)
		assert.Zero(t, res.ErrorCount)
		assert.Zero(t, res.WarningCount)
		assert.NoError(t, res.Err())
	})

	t.Run("missing order id is fatal", func(t *testing.T) {
		res := ValidateHeaders(full[1:], fields)
		assert.False(t, res.IsValid)
		assert.Equal(t, 1, res.ErrorCount)

		err := res.Err()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingOrderColumn)
		assert.Contains(t, err.Error(), "Name")
	})

	t.Run("missing other columns warn", func(t *testing.T) {
		res := ValidateHeaders([]string{"Name", "Payment ID", "Tags"}, fields)
		assert.True(t, res.IsValid)
		assert.NoError(t, res.Err())
		assert.Equal(t, len(full)-3, res.WarningCount)

		warned := make(map[string]bool)
		for _, w := range res.Warnings() {
			assert.Equal(t, SeverityWarning, w.Severity)
			warned[w.Field] = true
		}
		assert.True(t, warned["Subtotal"])
		assert.True(t, warned["Lineitem quantity"])
		assert.False(t, warned["Name"])
	})

	t.Run("empty header", func(t *testing.T) {
		res := ValidateHeaders(nil, fields)
		assert.False(t, res.IsValid)
		assert.Equal(t, 1, res.ErrorCount)
		assert.Equal(t, len(full)-1, res.WarningCount)
		// Errors are listed before warnings.
		assert.Equal(t, SeverityError, res.Errors[0].Severity)
	})
}

func TestValidationErrorMessage(t *testing.T) {
	e := &ValidationError{Severity: SeverityWarning, Field: "Tags", Message: "missing"}
	assert.Equal(t, "[WARNING] column 'Tags': missing", e.Error())
}
