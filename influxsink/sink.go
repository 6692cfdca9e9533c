// Package influxsink writes surface pool statistics to InfluxDB.
//
// Each report becomes two points: "SurfacePoolCounts" with the surface
// counters and "SurfacePoolBytes" with the memory figures. Writes go
// through the client's non-blocking write API, so Record never waits on
// the network.
package influxsink

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/gogpu/surfacepool"
)

// Measurement names.
const (
	MeasurementCounts = "SurfacePoolCounts"
	MeasurementBytes  = "SurfacePoolBytes"
)

// Config holds the InfluxDB connection settings.
type Config struct {
	URL    string            `json:"url" yaml:"url"`
	Token  string            `json:"token" yaml:"token"`
	Org    string            `json:"org" yaml:"org"`
	Bucket string            `json:"bucket" yaml:"bucket"`
	Tags   map[string]string `json:"tags" yaml:"tags"`
}

// PointWriter accepts points. The client's WriteAPI implements it.
type PointWriter interface {
	WritePoint(p *write.Point)
}

// Sink is a surfacepool.StatsSink that writes to InfluxDB.
type Sink struct {
	client influxdb2.Client
	writer PointWriter
	tags   map[string]string
	now    func() time.Time
}

var _ surfacepool.StatsSink = (*Sink)(nil)

// New connects to the server in cfg and returns a sink writing to its
// bucket. Asynchronous write errors are logged at Warn level.
func New(cfg Config) *Sink {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			surfacepool.Logger().Warn("influxsink: write failed", "err", err)
		}
	}()

	s := NewWithWriter(writeAPI, cfg.Tags)
	s.client = client
	return s
}

// NewWithWriter returns a sink writing to w with the given tags on every
// point.
func NewWithWriter(w PointWriter, tags map[string]string) *Sink {
	return &Sink{writer: w, tags: tags, now: time.Now}
}

// Record implements surfacepool.StatsSink.
func (s *Sink) Record(stats surfacepool.Statistics) {
	for _, p := range Points(stats, s.tags, s.now()) {
		s.writer.WritePoint(p)
	}
}

// Close flushes pending writes and closes the client, if New created one.
func (s *Sink) Close() {
	if f, ok := s.writer.(interface{ Flush() }); ok {
		f.Flush()
	}
	if s.client != nil {
		s.client.Close()
	}
}

// Points converts a statistics snapshot to InfluxDB points stamped with t.
func Points(stats surfacepool.Statistics, tags map[string]string, t time.Time) []*write.Point {
	counts := influxdb2.NewPoint(MeasurementCounts, tags, map[string]interface{}{
		"Cached":    int64(stats.Cached),
		"Pending":   int64(stats.Pending),
		"Created":   int64(stats.Created),
		"Reused":    int64(stats.Reused),
		"Resources": int64(stats.ResourceCount),
	}, t)

	bytes := influxdb2.NewPoint(MeasurementBytes, tags, map[string]interface{}{
		"CachedBytes":    int64(stats.CachedBytes),
		"ResourceBytes":  int64(stats.ResourceBytes),
		"PurgeableBytes": int64(stats.ResourcePurgeableBytes),
	}, t)

	return []*write.Point{counts, bytes}
}
