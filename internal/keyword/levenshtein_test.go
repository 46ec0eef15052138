package keyword

import "testing"

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"coil", "coil", 0},
		{"", "bolt", 4},
		{"bolt", "", 4},
		{"bolt", "bold", 1},
		{"spring", "sprng", 1},
		{"washer", "wahser", 2},
		{"kitten", "sitting", 3},
		{"Coil", "coil", 1},
		{"naïve", "naive", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := editDistance(tt.a, tt.b); got != tt.want {
				t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := editDistance(tt.b, tt.a); got != tt.want {
				t.Errorf("editDistance not symmetric for %q, %q", tt.a, tt.b)
			}
		})
	}
}
