package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatheredNames(t *testing.T, reg *prometheus.Registry) []string {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	return names
}

func containsPrefix(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

func TestObservability_RecordsStages(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := New("mentor-matcher", reg)
	require.NoError(t, err)
	defer o.Shutdown(context.Background())

	ctx := context.Background()
	done := o.TrackStage(ctx, "load")
	done(nil)
	o.RecordStage(ctx, "match", 1500*time.Millisecond, errors.New("timeout"))

	names := gatheredNames(t, reg)
	assert.True(t, containsPrefix(names, "pipeline_stage_duration"), "got %v", names)
	assert.True(t, containsPrefix(names, "pipeline_stage_runs"), "got %v", names)
}

func TestObservability_NilIsSafe(t *testing.T) {
	var o *Observability
	o.RecordStage(context.Background(), "load", time.Second, nil)
	assert.NoError(t, o.Shutdown(context.Background()))
}
