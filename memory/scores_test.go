package memory_test

import (
	"math"
	"testing"

	"github.com/recallhq/recall-go-sdk/memory"
)

func TestSoftmaxSumsToOne(t *testing.T) {
	out := memory.Softmax([]float64{3, 1, 0.5, 7})
	var sum float64
	for _, s := range out {
		sum += s
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("scores sum to %v, want 1", sum)
	}
	// Higher rank, higher score.
	if out[3] <= out[0] || out[0] <= out[1] || out[1] <= out[2] {
		t.Errorf("scores do not follow rank order: %v", out)
	}
}

func TestSoftmaxStaysFiniteOnLargeRanks(t *testing.T) {
	out := memory.Softmax([]float64{1000, 999, 500})
	for i, s := range out {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			t.Fatalf("score %d is not finite: %v", i, s)
		}
	}
}

func TestSoftmaxEmpty(t *testing.T) {
	if out := memory.Softmax(nil); out != nil {
		t.Fatalf("got %v, want nil", out)
	}
}

func TestLinearMinMaxEndpoints(t *testing.T) {
	out := memory.LinearMinMax([]float64{0.2, 0.8, 0.5})
	if out[1] != 1.0 {
		t.Errorf("max maps to %v, want exactly 1", out[1])
	}
	if out[0] != 0.0 {
		t.Errorf("min maps to %v, want exactly 0", out[0])
	}
	if out[2] <= 0 || out[2] >= 1 {
		t.Errorf("middle value %v escapes (0,1)", out[2])
	}
}

func TestLinearMinMaxAllEqual(t *testing.T) {
	out := memory.LinearMinMax([]float64{0.7, 0.7, 0.7})
	for i, s := range out {
		if s != 0 {
			t.Errorf("score %d: got %v, want 0", i, s)
		}
	}
}

func TestSumNormalize(t *testing.T) {
	out := memory.SumNormalize([]float64{1, 3})
	if math.Abs(out[0]-0.25) > 1e-9 || math.Abs(out[1]-0.75) > 1e-9 {
		t.Fatalf("got %v, want [0.25 0.75]", out)
	}

	zeros := memory.SumNormalize([]float64{0, 0})
	for i, s := range zeros {
		if s != 0 {
			t.Errorf("all-zero input: score %d = %v, want 0", i, s)
		}
	}
}
