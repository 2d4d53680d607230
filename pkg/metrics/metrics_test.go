package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_total", Help: "test"}, []string{"op"})
}

func TestRegister_ReusesExisting(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := Register(reg, newCounter())
	second := Register(reg, newCounter())
	assert.Same(t, first, second)
}

func TestRegister_NilRegisterer(t *testing.T) {
	c := newCounter()
	assert.Same(t, c, Register(nil, c))
}

func TestRegister_PanicsOnConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg, newCounter())

	conflicting := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_total", Help: "other"})
	assert.Panics(t, func() { Register(reg, conflicting) })
}
