package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLookupSeededEntries(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Weak Password", "Change the device password to a strong, unique one."},
		{"Outdated Firmware", "Update the device firmware via the manufacturer's app."},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := Lookup(tt.label)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)

			// повторный вызов дает тот же результат
			again, _ := Lookup(tt.label)
			assert.Equal(t, got, again)
		})
	}
}

func TestLookupUnknownLabel(t *testing.T) {
	got, ok := Lookup("Quantum Tunneling")
	assert.False(t, ok)
	assert.Empty(t, got)

	got, ok = Lookup("")
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestLabelsSorted(t *testing.T) {
	labels := Labels()
	assert.Contains(t, labels, "Weak Password")
	assert.Contains(t, labels, "Outdated Firmware")
	assert.IsNonDecreasing(t, labels)
}

func TestAdvisorFallbackLogsMiss(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	a := NewAdvisor(zap.New(core))

	assert.Equal(t, "Change the device password to a strong, unique one.", a.Advise("Weak Password"))
	assert.Equal(t, 0, logs.Len())

	assert.Equal(t, FallbackAdvice, a.Advise("Unknown Thing"))
	if assert.Equal(t, 1, logs.Len()) {
		entry := logs.All()[0]
		assert.Equal(t, "no recommendation for vulnerability", entry.Message)
		assert.Equal(t, "Unknown Thing", entry.ContextMap()["label"])
		assert.Len(t, entry.ContextMap()["known"], len(Labels()))
	}
}

func TestAdviseAllKeepsOrder(t *testing.T) {
	a := NewAdvisor(zap.NewNop())
	got := a.AdviseAll([]string{"Outdated Firmware", "Nope", "Weak Password"})
	assert.Equal(t, []string{
		"Update the device firmware via the manufacturer's app.",
		FallbackAdvice,
		"Change the device password to a strong, unique one.",
	}, got)
}
