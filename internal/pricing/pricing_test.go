package pricing

import (
	"math"
	"testing"

	"github.com/cclinedev/ccline/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"claude-sonnet-4-5", "claude-sonnet-4-5"},
		{"claude-sonnet-4-5-20250929", "claude-sonnet-4-5"},
		{"claude-opus-4-1-20250805", "claude-opus-4-1"},
		{"claude-haiku-4-5-20251001", "claude-haiku-4-5"},
		{"unknown-model", "unknown-model"},
		{"unknown-model-20250101", "unknown-model-20250101"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCost(t *testing.T) {
	tokens := model.TokenBreakdown{
		Input:         1_000_000,
		Output:        1_000_000,
		CacheCreation: 1_000_000,
		CacheRead:     1_000_000,
	}

	// sonnet-4-5: 3.00 + 15.00 + 3.75 + 0.30 = 22.05
	got := Cost("claude-sonnet-4-5-20250929", tokens)
	if math.Abs(got-22.05) > 1e-9 {
		t.Errorf("Cost = %.4f, want 22.05", got)
	}
}

func TestCostUnknownModelUsesDefault(t *testing.T) {
	tokens := model.TokenBreakdown{Input: 1_000_000}

	got := Cost("some-future-model", tokens)
	want := Cost(DefaultModel, tokens)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Cost(unknown) = %.4f, want default-model cost %.4f", got, want)
	}
	if got == 0 {
		t.Error("unknown model must not cost zero")
	}
}

func TestOverride(t *testing.T) {
	in := 9.99
	Override("claude-haiku-3-5", &in, nil, nil, nil)
	defer func() {
		orig := 0.80
		Override("claude-haiku-3-5", &orig, nil, nil, nil)
	}()

	r, ok := Lookup("claude-haiku-3-5")
	if !ok {
		t.Fatal("model missing after override")
	}
	if r.InputPerMTok != 9.99 {
		t.Errorf("InputPerMTok = %.2f, want 9.99", r.InputPerMTok)
	}
	if r.OutputPerMTok != 4.00 {
		t.Errorf("OutputPerMTok = %.2f, want 4.00 (untouched)", r.OutputPerMTok)
	}
}
