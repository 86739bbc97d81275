package metrics_test

import (
	"testing"

	"github.com/guru-1432/workout-app/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_RegistersCollectors(t *testing.T) {
	m, reg := metrics.NewTestManagerAndRegistry()

	m.CounterRegistrations.Inc()
	m.CounterLogins.WithLabelValues("password").Inc()
	m.CounterLogins.WithLabelValues("password").Inc()
	m.CounterWorkoutSets.Add(3)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterRegistrations))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CounterLogins.WithLabelValues("password")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.CounterWorkoutSets))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "backend_test_server_registrations")
	assert.Contains(t, names, "backend_test_server_logins")
}
