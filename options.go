package surfacepool

// Default pool limits.
const (
	// DefaultMaxSurfaces is the default cap on the number of available surfaces.
	DefaultMaxSurfaces = 12

	// DefaultMaxSurfaceAge is the default number of aging passes an unused
	// surface survives.
	DefaultMaxSurfaceAge = 3
)

// Config holds the pool limits. Zero or negative values select defaults.
type Config struct {
	// MaxSurfaces caps the number of surfaces kept ready for reuse.
	MaxSurfaces int `json:"maxSurfaces" yaml:"maxSurfaces"`

	// MaxSurfaceAge is the aging threshold, in AgeAndCollect passes.
	MaxSurfaceAge int `json:"maxSurfaceAge" yaml:"maxSurfaceAge"`
}

// Option configures a Pool during creation.
//
// Example:
//
//	pool := surfacepool.New(factory,
//	    surfacepool.WithMaxSurfaces(8),
//	    surfacepool.WithResourceCache(cache),
//	)
type Option func(*poolOptions)

// poolOptions holds optional configuration for Pool creation.
type poolOptions struct {
	maxSurfaces   int
	maxSurfaceAge int
	resources     ResourceCache
	sinks         []StatsSink
}

// defaultOptions returns the default pool options.
func defaultOptions() poolOptions {
	return poolOptions{
		maxSurfaces:   DefaultMaxSurfaces,
		maxSurfaceAge: DefaultMaxSurfaceAge,
	}
}

// WithConfig applies every positive limit in cfg.
func WithConfig(cfg Config) Option {
	return func(o *poolOptions) {
		WithMaxSurfaces(cfg.MaxSurfaces)(o)
		WithMaxSurfaceAge(cfg.MaxSurfaceAge)(o)
	}
}

// WithMaxSurfaces sets the cap on available surfaces.
// Values <= 0 keep the default.
func WithMaxSurfaces(n int) Option {
	return func(o *poolOptions) {
		if n > 0 {
			o.maxSurfaces = n
		}
	}
}

// WithMaxSurfaceAge sets the aging threshold.
// Values <= 0 keep the default.
func WithMaxSurfaceAge(n int) Option {
	return func(o *poolOptions) {
		if n > 0 {
			o.maxSurfaceAge = n
		}
	}
}

// WithResourceCache sets the graphics-context resource cache queried by
// ReportStatistics. A nil cache reports zero usage.
func WithResourceCache(rc ResourceCache) Option {
	return func(o *poolOptions) {
		o.resources = rc
	}
}

// WithStatsSink adds a sink that receives every statistics report.
// Nil sinks are ignored.
func WithStatsSink(s StatsSink) Option {
	return func(o *poolOptions) {
		if s != nil {
			o.sinks = append(o.sinks, s)
		}
	}
}
