package provider

import "testing"

func TestFreeFromPricing(t *testing.T) {
	tests := []struct {
		name       string
		prompt     string
		completion string
		want       bool
	}{
		{"both zero", "0", "0", true},
		{"zero with decimals", "0.0", "0.000", true},
		{"both empty treated as zero", "", "", true},
		{"prompt priced", "0.001", "0", false},
		{"completion priced", "0", "0.002", false},
		{"both priced", "0.001", "0.002", false},
		{"unparseable prompt is paid", "free", "0", false},
		{"unparseable completion is paid", "0", "n/a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := freeFromPricing(tt.prompt, tt.completion); got != tt.want {
				t.Errorf("freeFromPricing(%q, %q) = %v, want %v",
					tt.prompt, tt.completion, got, tt.want)
			}
		})
	}
}

func TestLargestContext(t *testing.T) {
	models := []ModelInfo{
		{ID: "small-free", ContextLength: 4096, Free: true},
		{ID: "big-paid", ContextLength: 128000, Free: false},
		{ID: "mid-free", ContextLength: 32000, Free: true},
	}
	if got := largestContext(models, true); got != "mid-free" {
		t.Errorf("largestContext(free) = %q, want mid-free", got)
	}
	if got := largestContext(models, false); got != "big-paid" {
		t.Errorf("largestContext(all) = %q, want big-paid", got)
	}
	if got := largestContext(nil, false); got != "" {
		t.Errorf("largestContext(empty) = %q, want empty", got)
	}
}
