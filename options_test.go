package surfacepool

import "testing"

func TestWithMaxSurfaces(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"positive", 4, 4},
		{"zero keeps default", 0, DefaultMaxSurfaces},
		{"negative keeps default", -1, DefaultMaxSurfaces},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPool(WithMaxSurfaces(tt.n))
			if got := p.MaxSurfaces(); got != tt.want {
				t.Errorf("MaxSurfaces() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWithMaxSurfaceAge(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"positive", 5, 5},
		{"zero keeps default", 0, DefaultMaxSurfaceAge},
		{"negative keeps default", -3, DefaultMaxSurfaceAge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPool(WithMaxSurfaceAge(tt.n))
			if got := p.MaxSurfaceAge(); got != tt.want {
				t.Errorf("MaxSurfaceAge() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWithConfig(t *testing.T) {
	p, _ := newTestPool(WithConfig(Config{MaxSurfaces: 6}))
	if p.MaxSurfaces() != 6 {
		t.Errorf("MaxSurfaces() = %d, want 6", p.MaxSurfaces())
	}
	if p.MaxSurfaceAge() != DefaultMaxSurfaceAge {
		t.Errorf("MaxSurfaceAge() = %d, want default %d", p.MaxSurfaceAge(), DefaultMaxSurfaceAge)
	}
}

func TestOptionsApplyInOrder(t *testing.T) {
	p, _ := newTestPool(WithMaxSurfaces(2), WithConfig(Config{MaxSurfaces: 9}))
	if p.MaxSurfaces() != 9 {
		t.Errorf("MaxSurfaces() = %d, want 9 (last option wins)", p.MaxSurfaces())
	}
}

func TestWithStatsSinkNil(t *testing.T) {
	p, _ := newTestPool(WithStatsSink(nil))
	if len(p.opts.sinks) != 0 {
		t.Errorf("nil sink was registered")
	}
	// Must not panic.
	p.ReportStatistics()
}
