package postgres

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebridge/codebridge/pkg/api"
	"github.com/codebridge/codebridge/pkg/observability"
	"github.com/codebridge/codebridge/pkg/storage"
)

func TestInstrumentedStoreCountsOperations(t *testing.T) {
	stub := newStubStore()
	stub.projects[1] = &api.Project{ID: 1, Name: "one"}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	store := NewInstrumentedStore(stub, metrics)
	ctx := context.Background()

	_, err := store.GetProject(ctx, 1)
	require.NoError(t, err)
	_, err = store.GetProject(ctx, 1)
	require.NoError(t, err)

	success := metrics.StorageOperationsTotal.WithLabelValues("get_project", "success")
	assert.Equal(t, float64(2), testutil.ToFloat64(success))
	assert.Equal(t, 2, stub.getProjectCalls)
}

func TestInstrumentedStoreCountsErrors(t *testing.T) {
	stub := newStubStore()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	store := NewInstrumentedStore(stub, metrics)

	_, err := store.GetProject(context.Background(), 99)
	require.ErrorIs(t, err, storage.ErrNotFound)

	failed := metrics.StorageOperationsTotal.WithLabelValues("get_project", "error")
	assert.Equal(t, float64(1), testutil.ToFloat64(failed))
}
