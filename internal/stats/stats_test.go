package stats_test

import (
	"testing"

	"github.com/huishoudboekje/backend/internal/stats"
)

func TestMedian_OddCount(t *testing.T) {
	if got := stats.Median([]float64{1, 2, 3}); got != 2 {
		t.Errorf("expected 2, got %v", got)
	}
	if got := stats.Median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("expected 2 for unsorted input, got %v", got)
	}
}

func TestMedian_EvenCount(t *testing.T) {
	if got := stats.Median([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("expected 2.5, got %v", got)
	}
}

func TestMedian_SingleElement(t *testing.T) {
	if got := stats.Median([]float64{5}); got != 5 {
		t.Errorf("expected 5, got %v", got)
	}
}

func TestMedian_Empty(t *testing.T) {
	if got := stats.Median(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
}

func TestMedian_AllEqual(t *testing.T) {
	if got := stats.Median([]float64{7, 7, 7, 7}); got != 7 {
		t.Errorf("expected 7, got %v", got)
	}
}

func TestMedianCents_RoundsHalfUp(t *testing.T) {
	// (100+101)/2 = 100.5 → 101
	if got := stats.MedianCents([]int64{100, 101}); got != 101 {
		t.Errorf("expected 101, got %d", got)
	}
	if got := stats.MedianCents([]int64{-100, -101}); got != -101 {
		t.Errorf("expected -101, got %d", got)
	}
}

func TestTrimmedMean(t *testing.T) {
	// 20% trim on 10 values drops one from each tail.
	values := []float64{100, 1, 2, 3, 4, 5, 6, 7, 8, 0}
	got := stats.TrimmedMean(values, 20)
	want := (1.0 + 2 + 3 + 4 + 5 + 6 + 7 + 8) / 8
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTrimmedMean_Empty(t *testing.T) {
	if got := stats.TrimmedMean(nil, 10); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestTrimmedMean_SingleElement(t *testing.T) {
	if got := stats.TrimmedMean([]float64{42}, 50); got != 42 {
		t.Errorf("expected 42, got %v", got)
	}
}

func TestTrimmedMean_TrimLargerThanSample(t *testing.T) {
	// Trimming that would discard everything falls back to the plain mean.
	if got := stats.TrimmedMean([]float64{2, 4}, 100); got != 3 {
		t.Errorf("expected 3, got %v", got)
	}
}

func TestMean(t *testing.T) {
	if got := stats.Mean([]float64{1, 2, 3}); got != 2 {
		t.Errorf("expected 2, got %v", got)
	}
	if got := stats.Mean(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
}

func TestMeanCents_Rounding(t *testing.T) {
	// (1+2)/2 = 1.5 → 2
	if got := stats.MeanCents([]int64{1, 2}); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}
