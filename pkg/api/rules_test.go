package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/signoff/internal/assert/helpers"
	"github.com/kode4food/signoff/pkg/api"
)

func TestRulesValidation(t *testing.T) {
	t.Run("valid_rules", func(t *testing.T) {
		assert.NoError(t, helpers.NewTestRules().Validate())
		assert.NoError(t, api.DefaultRules().Validate())
	})

	t.Run("negative_threshold", func(t *testing.T) {
		rules := &api.Rules{AmountThreshold: -100}
		assert.ErrorIs(t, rules.Validate(), api.ErrNegativeThreshold)
	})

	t.Run("empty_approver_name", func(t *testing.T) {
		rules := &api.Rules{
			AmountThreshold: 10000,
			Approvers:       map[api.Role]string{"manager": ""},
		}
		err := rules.Validate()
		assert.ErrorIs(t, err, api.ErrApproverNameEmpty)
		assert.Contains(t, err.Error(), "manager")
	})
}

func TestApproverFor(t *testing.T) {
	rules := helpers.NewTestRules()

	assert.Equal(t, "王经理", rules.ApproverFor("manager"))
	assert.Equal(t, "李会计", rules.ApproverFor("finance"))

	t.Run("unconfigured_role_falls_back", func(t *testing.T) {
		assert.Equal(t, "auditor", rules.ApproverFor("auditor"))
	})

	t.Run("nil_rules_fall_back", func(t *testing.T) {
		var nilRules *api.Rules
		assert.Equal(t, "manager", nilRules.ApproverFor("manager"))
	})
}

func TestPathFor(t *testing.T) {
	rules := &api.Rules{
		RiskPaths: map[api.RiskLevel]api.NodeID{
			api.RiskHigh: "ceo",
			api.RiskLow:  "auto",
		},
	}

	assert.Equal(t, api.NodeID("ceo"), rules.PathFor(api.RiskHigh))
	assert.Equal(t, api.NodeID("auto"), rules.PathFor(api.RiskLow))

	t.Run("unconfigured_level", func(t *testing.T) {
		assert.Equal(t, api.NodeID(""), rules.PathFor(api.RiskMedium))
	})

	t.Run("nil_rules", func(t *testing.T) {
		var nilRules *api.Rules
		assert.Equal(t, api.NodeID(""), nilRules.PathFor(api.RiskHigh))
	})
}

func TestThreshold(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		rules := &api.Rules{AmountThreshold: 5000}
		assert.Equal(t, 5000.0, rules.Threshold())
	})

	t.Run("unset_uses_default", func(t *testing.T) {
		rules := &api.Rules{}
		assert.Equal(t,
			float64(api.DefaultAmountThreshold), rules.Threshold(),
		)
	})

	t.Run("nil_uses_default", func(t *testing.T) {
		var nilRules *api.Rules
		assert.Equal(t,
			float64(api.DefaultAmountThreshold), nilRules.Threshold(),
		)
	})
}
