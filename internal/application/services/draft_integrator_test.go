package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Medicalqueryreview/internal/application/services"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
)

type draftProviderFunc func(ctx context.Context, req entities.DraftRequest) (string, error)

func (f draftProviderFunc) Draft(ctx context.Context, req entities.DraftRequest) (string, error) {
	return f(ctx, req)
}

func staticDraft(text string) draftProviderFunc {
	return func(ctx context.Context, req entities.DraftRequest) (string, error) {
		return text, nil
	}
}

// blockingDraft ignores ctx and only returns once the test finishes
func blockingDraft(t *testing.T) draftProviderFunc {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	return func(ctx context.Context, req entities.DraftRequest) (string, error) {
		<-release
		return "too late", nil
	}
}

func awaitDraft(t *testing.T, result <-chan entities.DraftResult) entities.DraftResult {
	t.Helper()
	select {
	case r, ok := <-result:
		require.True(t, ok, "result channel closed without a value")
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("draft result never settled")
	}
	return entities.DraftResult{}
}

func TestDraftIntegrator_AttachesDraftToQuery(t *testing.T) {
	ctx := context.Background()

	var seen atomic.Value
	provider := draftProviderFunc(func(ctx context.Context, req entities.DraftRequest) (string, error) {
		seen.Store(req)
		return "Consider a spacer device.", nil
	})
	integrator := services.NewDraftIntegrator(provider, services.DraftIntegratorConfig{Timeout: time.Second, Workers: 2})
	f := newLifecycleFixture(t, integrator)
	integrator.Start(f.queries)
	t.Cleanup(func() { _ = integrator.Stop(context.Background()) })

	queryID, err := f.queries.Submit(ctx, f.patientID, "Inhaler", "Is a spacer useful?")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		q, err := f.queries.Get(ctx, queryID)
		return err == nil && q.AIDraftResponse != nil
	}, 2*time.Second, 10*time.Millisecond)

	query, err := f.queries.Get(ctx, queryID)
	require.NoError(t, err)
	assert.Equal(t, "Consider a spacer device.", *query.AIDraftResponse)
	assert.Equal(t, entities.QueryStatusPending, query.Status)

	req := seen.Load().(entities.DraftRequest)
	assert.Equal(t, "Inhaler\n\nIs a spacer useful?", req.QueryText)
	assert.Equal(t, "asthma", req.Condition)
}

func TestDraftIntegrator_SlowProviderDoesNotDelaySubmit(t *testing.T) {
	ctx := context.Background()

	integrator := services.NewDraftIntegrator(blockingDraft(t), services.DraftIntegratorConfig{Timeout: 200 * time.Millisecond})
	f := newLifecycleFixture(t, integrator)
	integrator.Start(f.queries)

	start := time.Now()
	queryID, err := f.queries.Submit(ctx, f.patientID, "title", "description")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	query, err := f.queries.Get(ctx, queryID)
	require.NoError(t, err)
	assert.Nil(t, query.AIDraftResponse)
	assert.Equal(t, entities.QueryStatusPending, query.Status)
}

func TestDraftIntegrator_RequestDraft(t *testing.T) {
	tests := []struct {
		name     string
		provider func(t *testing.T) draftProviderFunc
		want     entities.DraftResult
	}{
		{
			name:     "success",
			provider: func(t *testing.T) draftProviderFunc { return staticDraft("draft text") },
			want:     entities.DraftResult{Text: "draft text", OK: true},
		},
		{
			name: "provider error",
			provider: func(t *testing.T) draftProviderFunc {
				return func(ctx context.Context, req entities.DraftRequest) (string, error) {
					return "", errors.New("connection refused")
				}
			},
		},
		{
			name:     "empty text",
			provider: func(t *testing.T) draftProviderFunc { return staticDraft("   ") },
		},
		{
			name: "panic",
			provider: func(t *testing.T) draftProviderFunc {
				return func(ctx context.Context, req entities.DraftRequest) (string, error) {
					panic("boom")
				}
			},
		},
		{
			name:     "timeout",
			provider: blockingDraft,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integrator := services.NewDraftIntegrator(tt.provider(t), services.DraftIntegratorConfig{Timeout: 50 * time.Millisecond})
			got := awaitDraft(t, integrator.RequestDraft(context.Background(), "query", "condition"))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDraftIntegrator_WorkerAbsorbsFailedDrafts(t *testing.T) {
	ctx := context.Background()

	var calls atomic.Int32
	provider := draftProviderFunc(func(ctx context.Context, req entities.DraftRequest) (string, error) {
		if calls.Add(1) == 1 {
			panic("malformed payload")
		}
		return "Rest and fluids.", nil
	})
	integrator := services.NewDraftIntegrator(provider, services.DraftIntegratorConfig{Timeout: time.Second, Workers: 1})
	f := newLifecycleFixture(t, integrator)
	integrator.Start(f.queries)

	failed, err := f.queries.Submit(ctx, f.patientID, "Cough", "")
	require.NoError(t, err)
	drafted, err := f.queries.Submit(ctx, f.patientID, "Fever", "")
	require.NoError(t, err)
	require.NoError(t, integrator.Stop(ctx))

	query, err := f.queries.Get(ctx, failed)
	require.NoError(t, err)
	assert.Nil(t, query.AIDraftResponse)
	assert.Equal(t, entities.QueryStatusPending, query.Status)

	query, err = f.queries.Get(ctx, drafted)
	require.NoError(t, err)
	require.NotNil(t, query.AIDraftResponse)
	assert.Equal(t, "Rest and fluids.", *query.AIDraftResponse)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDraftIntegrator_RequestDraftSettlesOnce(t *testing.T) {
	integrator := services.NewDraftIntegrator(staticDraft("draft"), services.DraftIntegratorConfig{})
	result := integrator.RequestDraft(context.Background(), "query", "condition")

	first := awaitDraft(t, result)
	assert.True(t, first.OK)

	_, open := <-result
	assert.False(t, open)
}

func TestDraftIntegrator_DisabledProvider(t *testing.T) {
	integrator := services.NewDraftIntegrator(nil, services.DraftIntegratorConfig{})
	assert.False(t, integrator.Enabled())
	assert.False(t, integrator.Dispatch(services.DraftJob{QueryID: "query_1"}))

	got := awaitDraft(t, integrator.RequestDraft(context.Background(), "query", "condition"))
	assert.False(t, got.OK)
}

func TestDraftIntegrator_FullQueueDropsJobs(t *testing.T) {
	integrator := services.NewDraftIntegrator(staticDraft("draft"), services.DraftIntegratorConfig{QueueSize: 1})

	assert.True(t, integrator.Dispatch(services.DraftJob{QueryID: "query_1"}))
	assert.False(t, integrator.Dispatch(services.DraftJob{QueryID: "query_2"}))
	assert.Equal(t, 1, integrator.QueueDepth())
}

func TestDraftIntegrator_StopDrainsQueue(t *testing.T) {
	ctx := context.Background()

	integrator := services.NewDraftIntegrator(staticDraft("draft"), services.DraftIntegratorConfig{QueueSize: 8})
	f := newLifecycleFixture(t, integrator)

	var queryIDs []string
	for i := 0; i < 3; i++ {
		id, err := f.queries.Submit(ctx, f.patientID, "title", "description")
		require.NoError(t, err)
		queryIDs = append(queryIDs, id)
	}
	assert.Equal(t, 3, integrator.QueueDepth())

	integrator.Start(f.queries)
	require.NoError(t, integrator.Stop(ctx))

	for _, id := range queryIDs {
		q, err := f.queries.Get(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, q.AIDraftResponse, "query %s has no draft", id)
	}
	assert.False(t, integrator.Dispatch(services.DraftJob{QueryID: "query_9"}))
	assert.NoError(t, integrator.Stop(ctx))
}

func TestDraftIntegrator_StopDeadlineCancelsInFlight(t *testing.T) {
	integrator := services.NewDraftIntegrator(blockingDraft(t), services.DraftIntegratorConfig{Timeout: time.Minute})
	integrator.Start(nil)
	require.True(t, integrator.Dispatch(services.DraftJob{QueryID: "query_1"}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := integrator.Stop(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
