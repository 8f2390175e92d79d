package benchmark

import (
	"strings"
	"testing"
	"time"

	"github.com/fyrsmithlabs/lpcassist/internal/validation"
	"github.com/stretchr/testify/assert"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name     string
		response string
		keywords []string
		want     float64
	}{
		{"no keywords is neutral", "anything", nil, 0.5},
		{"all found", "This response contains inherit and attack keywords", []string{"inherit", "attack"}, 1},
		{"half found", "This response contains inherit only", []string{"inherit", "attack"}, 0.5},
		{"case insensitive", "INHERIT \"/std/room\";", []string{"inherit", "Room"}, 1},
		{"none found", "", []string{"inherit"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Accuracy(tt.response, tt.keywords), 1e-9)
		})
	}
}

func TestQuality(t *testing.T) {
	short := "ok"
	assert.InDelta(t, 0.3*0.3, Quality(short, nil), 1e-9)

	code := "```c\ninherit \"/std/room\";\nvoid create() { int x; string s; object o; mapping m; mixed y; }\n```\n"
	code += strings.Repeat("// padding line for length\n", 10)
	// 100 <= len < 500: 0.21 length, 0.2 code marker, 0.2 full syntax density
	assert.Greater(t, len(code), 100)
	assert.Less(t, len(code), 500)
	assert.InDelta(t, 0.21+0.2+0.2, Quality(code, nil), 1e-9)

	val := &validation.Result{ConfidenceScore: 1}
	assert.InDelta(t, 0.21+0.2+0.2+0.3, Quality(code, val), 1e-9)

	verbose := strings.Repeat("a", 2500)
	assert.InDelta(t, 0.3*0.6, Quality(verbose, nil), 1e-9)

	mid := strings.Repeat("b", 1000)
	assert.InDelta(t, 0.3*0.9, Quality(mid, nil), 1e-9)
}

func TestQuality_CappedAtOne(t *testing.T) {
	code := "void int inherit string object mapping mixed " + strings.Repeat("x", 600)
	q := Quality(code, &validation.Result{ConfidenceScore: 5})
	assert.Equal(t, 1.0, q)
}

func TestTokensPerSecond(t *testing.T) {
	assert.InDelta(t, 10*1.3, TokensPerSecond("a b c d e f g h i j", time.Second), 1e-9)
	assert.InDelta(t, 10*1.3/2, TokensPerSecond("a b c d e f g h i j", 2*time.Second), 1e-9)
	assert.Equal(t, 0.0, TokensPerSecond("a b", 0))
}

func TestCombinedScore(t *testing.T) {
	assert.InDelta(t, 0.4+0.2/3, combinedScore(1, 0, 2000), 1e-9)
	assert.InDelta(t, 0.2+0.2/1.5, combinedScore(0.5, 0, 500), 1e-9)
	assert.InDelta(t, 1.0, combinedScore(1, 1, 0), 1e-9)
}
