package engine_test

import (
	"context"
	"testing"

	"github.com/kode4food/signoff/internal/assert"
	"github.com/kode4food/signoff/internal/assert/helpers"
	"github.com/kode4food/signoff/internal/engine"
	"github.com/kode4food/signoff/pkg/api"
)

func TestNewValidatesDependencies(t *testing.T) {
	as := assert.New(t)
	helpers.WithTestEnv(t, func(env *helpers.TestEngineEnv) {
		_, err := engine.New(env.Config, engine.Dependencies{})
		as.ErrorIs(err, engine.ErrRunStoreRequired)

		_, err = engine.New(env.Config, engine.Dependencies{
			RunStore: env.RunStore(),
		})
		as.ErrorIs(err, engine.ErrStoresRequired)

		_, err = engine.New(env.Config, engine.Dependencies{
			RunStore: env.RunStore(),
			Stores:   env.Stores,
		})
		as.ErrorIs(err, engine.ErrEvaluatorRequired)

		cfg := helpers.NewTestConfig()
		cfg.MaxSteps = 0
		_, err = engine.New(cfg, engine.Dependencies{
			RunStore:  env.RunStore(),
			Stores:    env.Stores,
			Evaluator: env.Evaluator,
		})
		as.Error(err)
	})
}

func TestGetRunStateNotFound(t *testing.T) {
	as := assert.New(t)
	helpers.WithEngine(t, func(eng *engine.Engine) {
		ctx := context.Background()

		_, err := eng.GetRunState(ctx, "run-missing")
		as.ErrorIs(err, engine.ErrRunNotFound)

		_, err = eng.GetRunState(ctx, "")
		as.ErrorIs(err, engine.ErrRunNotFound)
	})
}

func TestRestartRebuildsRunState(t *testing.T) {
	as := assert.New(t)
	helpers.WithTestEnv(t, func(env *helpers.TestEngineEnv) {
		ctx := context.Background()
		req := helpers.NewTestRequest()
		req.Amount = 500
		req.Urgent = false

		res, err := env.Engine.Run(ctx, helpers.NewTestFlow(), req)
		as.NoError(err)
		as.Equal(api.RunCompleted, res.Status)

		// a fresh engine over the same store replays the trail
		restarted := env.NewEngineInstance(t)
		t.Cleanup(func() { _ = restarted.Stop() })

		st, err := restarted.GetRunState(ctx, res.InstanceID)
		as.NoError(err)
		as.RunStatus(st, api.RunCompleted)
		as.Equal(req.RequestID, st.Request.RequestID)
		as.Visited(st,
			"start", "risk_check", "manager", "amount_branch",
			"finance", "notify", "end",
		)
		as.RunStateEquals(st, "finance_approved", true)
		as.False(st.CompletedAt.IsZero())
		as.False(st.StartedAt.IsZero())
	})
}

func TestStopFlushesPendingNotifications(t *testing.T) {
	as := assert.New(t)
	env := helpers.NewTestEngine(t)
	defer env.Cleanup()
	env.Engine.Start()

	ctx := context.Background()
	req := helpers.NewTestRequest()
	req.Amount = 500
	req.Urgent = false

	_, err := env.Engine.Run(ctx, helpers.NewTestFlow(), req)
	as.NoError(err)

	as.NoError(env.Engine.Stop())
	as.GreaterOrEqual(env.Notifier.Count(), 4)
}

func TestStopWithoutStart(t *testing.T) {
	as := assert.New(t)
	helpers.WithEngine(t, func(eng *engine.Engine) {
		as.NoError(eng.Stop())
		as.NoError(eng.Stop())
	})
}

func TestDefaultNotifiersCoverChannels(t *testing.T) {
	as := assert.New(t)
	notifiers := engine.DefaultNotifiers(helpers.NewTestConfig())
	as.Contains(notifiers, api.ChannelEmail)
	as.Contains(notifiers, api.ChannelERP)
	as.Contains(notifiers, api.ChannelAlert)
}
