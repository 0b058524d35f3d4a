package wire

import (
	"math"
	"testing"
)

func TestMulInt(t *testing.T) {
	tests := []struct {
		a, b int
		want int
		ok   bool
	}{
		{0, 5, 0, true},
		{5, 0, 0, true},
		{3, 4, 12, true},
		{math.MaxInt, 1, math.MaxInt, true},
		{math.MaxInt/2 + 1, 2, 0, false},
		{1 << 40, 1 << 40, 0, false},
	}
	for _, tt := range tests {
		got, ok := MulInt(tt.a, tt.b)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MulInt(%d, %d) = %d, %v; want %d, %v", tt.a, tt.b, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFitsPrefix(t *testing.T) {
	if !FitsPrefix(0) || !FitsPrefix(math.MaxInt32) {
		t.Error("valid counts rejected")
	}
	if FitsPrefix(-1) || FitsPrefix(math.MinInt32) {
		t.Error("invalid counts accepted")
	}
}
