package age

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordCommand(KindCypher)
	m.RecordQuery(KindCypher, time.Millisecond, nil)
	m.RecordRows(3)
	m.RecordDecodeFailure()
	m.RecordPlanLookup(planSourceMemory)
	m.RecordPlanStoreError()
}

func TestMetrics_Record(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordCommand(KindCreateGraph)
	m.RecordQuery(KindCypher, 5*time.Millisecond, nil)
	m.RecordQuery(KindCypher, 5*time.Millisecond, errors.New("boom"))
	m.RecordRows(4)
	m.RecordDecodeFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.commandsTotal.WithLabelValues(string(KindCreateGraph))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues(string(KindCypher), "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues(string(KindCypher), "error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.rowsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decodeFailures))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestClient_RecordsDecodeFailures(t *testing.T) {
	m := newTestMetrics(t)
	exec := &fakeExecutor{rows: &fakeRows{columns: []string{"v"}, data: [][]any{{`{bad`}}}}
	client := NewClient(exec, WithMetrics(m), WithLogger(quietLogger()))

	_, err := client.Cypher(context.Background(), "g", "RETURN v", nil)
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decodeFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues(string(KindCypher), "error")))
}
