package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultWeights(t *testing.T) {
	weights := DefaultWeights()

	tests := []struct {
		name        string
		path        string
		query       string
		bonus       float64
		prioritized bool
	}{
		{"plain doc", "doc/notes.txt", "attack damage", 0, false},
		{"driver source by extension", "src/array.c", "attack", 0.15, true},
		{"driver source by directory", "fluffos/docs/readme.txt", "attack", 0.15, true},
		{"object path without object query", "mudlib/std/object.lpc", "attack", 0, false},
		{"object path with object query", "mudlib/std/object.lpc", "clone an object", 0.2, true},
		{"object source file", "src/object.c", "object table", 0.35, true},
		{"efun doc with efun query", "doc/efun/call_out.txt", "efun call_out", 0.15, true},
		{"efun doc without efun query", "doc/efun/call_out.txt", "attack", 0, false},
		{"call dispatch only", "doc/call_method.md", "how does call other work", 0.1, false},
		{"everything", "src/efun_object_call.c", "object efun call_method", 0.15 + 0.2 + 0.15 + 0.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.bonus, weights.Bonus(tt.path, tt.query), 1e-9)
			assert.Equal(t, tt.prioritized, weights.Prioritized(tt.path, tt.query))
		})
	}
}

func TestWeightRule_EmptyQueryMarkersAlwaysMatch(t *testing.T) {
	r := WeightRule{PathMarkers: []string{"vm"}, Bonus: 0.5}
	assert.True(t, r.Applies("src/vm/exec.c", ""))
	assert.False(t, r.Applies("src/exec.c", "vm"))
}

func TestWeightTable_Nil(t *testing.T) {
	var table WeightTable
	assert.Zero(t, table.Bonus("src/object.c", "object"))
	assert.False(t, table.Prioritized("src/object.c", "object"))
}
