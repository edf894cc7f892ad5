package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/signoff/internal/script"
	"github.com/kode4food/signoff/pkg/api"
)

func TestExprEvaluate(t *testing.T) {
	env := script.NewExprEnv()

	tests := []struct {
		name      string
		condition string
		state     api.Args
		expected  bool
	}{
		{
			name:      "amount_below_threshold",
			condition: "amount < 10000",
			state:     api.Args{"amount": 500.0},
			expected:  true,
		},
		{
			name:      "amount_at_threshold",
			condition: "amount < 10000",
			state:     api.Args{"amount": 10000.0},
			expected:  false,
		},
		{
			name:      "conjunction",
			condition: "amount >= 10000 && urgent",
			state:     api.Args{"amount": 12000.0, "urgent": true},
			expected:  true,
		},
		{
			name:      "negation",
			condition: "amount >= 10000 && !urgent",
			state:     api.Args{"amount": 12000.0, "urgent": true},
			expected:  false,
		},
		{
			name:      "string_comparison",
			condition: `risk == "high"`,
			state:     api.Args{"risk": "high"},
			expected:  true,
		},
		{
			name:      "catch_all",
			condition: "true",
			state:     api.Args{},
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.Evaluate(tt.condition, tt.state)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res)
		})
	}
}

func TestExprValidate(t *testing.T) {
	env := script.NewExprEnv()

	assert.NoError(t, env.Validate("amount < 10000"))
	assert.ErrorIs(t, env.Validate("amount <"), script.ErrExprCompile)
}

func TestExprNonBooleanResult(t *testing.T) {
	env := script.NewExprEnv()

	_, err := env.Evaluate("amount + 1", api.Args{"amount": 5.0})
	assert.ErrorIs(t, err, script.ErrExprNotBool)
}

func TestExprCaching(t *testing.T) {
	env := script.NewExprEnv()

	first, err := env.Evaluate("amount < 10000", api.Args{"amount": 1.0})
	require.NoError(t, err)
	assert.True(t, first)

	second, err := env.Evaluate(
		"amount < 10000", api.Args{"amount": 99999.0},
	)
	require.NoError(t, err)
	assert.False(t, second)
}
