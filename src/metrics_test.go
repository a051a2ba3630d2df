package mac

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gathered finds the value of one series, matching on all of labels.
func gathered(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	var families, err = reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}

	metrics:
		for _, m := range mf.GetMetric() {
			var have = map[string]string{}
			for _, lp := range m.GetLabel() {
				have[lp.GetName()] = lp.GetValue()
			}

			for k, v := range labels {
				if have[k] != v {
					continue metrics
				}
			}

			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}

			return m.GetGauge().GetValue()
		}
	}

	require.Failf(t, "metric not found", "%s %v", name, labels)

	return 0
}

func TestCollector(t *testing.T) {
	var s, err = ParseScenario([]byte(testScenario))
	require.NoError(t, err)

	var sim, buildErr = s.Build()
	require.NoError(t, buildErr)

	var _, runErr = sim.Run(0)
	require.NoError(t, runErr)

	var reg = prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewCollector(sim.Engines())))

	var phone = map[string]string{"station": "02:00:00:00:00:02", "category": "voice"}
	var ap = map[string]string{"station": "02:00:00:00:00:01"}

	assert.InDelta(t, 10, gathered(t, reg, "edcamac_frames_sent_total", phone), 0)
	assert.InDelta(t, 0, gathered(t, reg, "edcamac_frames_given_up_total", phone), 0)
	assert.InDelta(t, 0, gathered(t, reg, "edcamac_queue_length", phone), 0)
	assert.InDelta(t, 15, gathered(t, reg, "edcamac_frames_received_total", ap), 0)
	assert.InDelta(t, 11e6, gathered(t, reg, "edcamac_bit_rate_bps", ap), 0)

	// DCF stations only have the one category.
	var laptopBE = map[string]string{"station": "02:00:00:00:00:99", "category": "best_effort"}
	assert.InDelta(t, 5, gathered(t, reg, "edcamac_frames_sent_total", laptopBE), 0)
}

func TestCollectorOptions(t *testing.T) {
	var h = newHarness(t, testConfig(ModeEDCA))

	var reg = prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewCollector([]*Engine{h.engine},
		WithNamespace("lab"),
		WithConstLabels(prometheus.Labels{"run": "7"}))))

	var labels = map[string]string{"station": selfAddr.String(), "category": "video", "run": "7"}
	assert.InDelta(t, 0, gathered(t, reg, "lab_frames_sent_total", labels), 0)

	var families, err = reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 9)
}
