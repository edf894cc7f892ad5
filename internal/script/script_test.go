package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/signoff/internal/assert/helpers"
	"github.com/kode4food/signoff/internal/script"
	"github.com/kode4food/signoff/pkg/api"
)

func TestRegistryGet(t *testing.T) {
	registry := script.NewRegistry()

	t.Run("expr", func(t *testing.T) {
		env, err := registry.Get(script.LangExpr)
		require.NoError(t, err)
		assert.NotNil(t, env)
	})

	t.Run("lua", func(t *testing.T) {
		env, err := registry.Get(script.LangLua)
		require.NoError(t, err)
		assert.NotNil(t, env)
	})

	t.Run("empty_defaults_to_expr", func(t *testing.T) {
		env, err := registry.Get("")
		require.NoError(t, err)
		assert.NotNil(t, env)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := registry.Get("python")
		assert.ErrorIs(t, err, script.ErrUnsupportedLanguage)
	})
}

func TestEvalBranch(t *testing.T) {
	registry := script.NewRegistry()
	state := api.Args{
		"amount": 12000.0,
		"urgent": true,
	}

	tests := []struct {
		name     string
		branch   *api.Branch
		expected bool
	}{
		{
			name: "expr_match",
			branch: &api.Branch{
				Condition: "amount >= 10000 && urgent",
				Next:      "parallel",
			},
			expected: true,
		},
		{
			name: "expr_no_match",
			branch: &api.Branch{
				Condition: "amount < 10000",
				Next:      "finance",
			},
			expected: false,
		},
		{
			name: "lua_match",
			branch: &api.Branch{
				Condition: "amount >= 10000 and urgent",
				Language:  script.LangLua,
				Next:      "parallel",
			},
			expected: true,
		},
		{
			name: "lua_no_match",
			branch: &api.Branch{
				Condition: "amount < 10000",
				Language:  script.LangLua,
				Next:      "finance",
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := registry.EvalBranch(tt.branch, state)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res)
		})
	}
}

func TestValidateFlow(t *testing.T) {
	registry := script.NewRegistry()

	t.Run("valid_flow", func(t *testing.T) {
		assert.NoError(t, registry.ValidateFlow(helpers.NewTestFlow()))
	})

	t.Run("malformed_condition", func(t *testing.T) {
		flow := helpers.NewTestFlow()
		flow.Nodes[3].Branches[0].Condition = "amount <"

		err := registry.ValidateFlow(flow)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "amount_branch")
	})

	t.Run("unsupported_language", func(t *testing.T) {
		flow := helpers.NewTestFlow()
		flow.Nodes[3].Branches[0].Language = "python"

		err := registry.ValidateFlow(flow)
		assert.ErrorIs(t, err, script.ErrUnsupportedLanguage)
	})
}
