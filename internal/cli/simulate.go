package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/surfacepool"
	"github.com/gogpu/surfacepool/halsurface"
	"github.com/gogpu/surfacepool/influxsink"
	"github.com/gogpu/surfacepool/internal/config"
	"github.com/gogpu/surfacepool/internal/frameloop"
)

// simulateOptions holds simulate flags that override the configuration.
type simulateOptions struct {
	backend  string
	displays int
	parallel int64
	inPlace  bool
}

func newSimulateCommand(root *rootOptions) *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the configured scenario and print pool statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			if opts.backend != "" {
				cfg.Backend = opts.backend
			}
			if opts.displays > 0 {
				cfg.Displays = opts.displays
			}

			results, err := simulate(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}
			return writeResults(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVarP(&opts.backend, "backend", "b", "", "HAL backend: noop or vulkan (overrides config)")
	cmd.Flags().IntVarP(&opts.displays, "displays", "d", 0, "number of displays (overrides config)")
	cmd.Flags().Int64VarP(&opts.parallel, "parallel", "p", 2, "displays simulated concurrently")
	cmd.Flags().BoolVar(&opts.inPlace, "resize-in-place", true, "shrink surfaces in place when a phase gets smaller")
	return cmd
}

// displayResult is the outcome of one display's frame loop.
type displayResult struct {
	display int
	result  frameloop.Result
}

// simulate runs one frame loop per display on a shared device.
func simulate(ctx context.Context, cfg *config.Config, opts *simulateOptions) ([]displayResult, error) {
	device, err := halsurface.Open(cfg.Backend)
	if err != nil {
		return nil, err
	}
	defer device.Close()

	parallel := opts.parallel
	if parallel <= 0 {
		parallel = 1
	}
	sem := semaphore.NewWeighted(parallel)

	results := make([]displayResult, cfg.Displays)
	g, ctx := errgroup.WithContext(ctx)
	for i := range cfg.Displays {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			res, err := runDisplay(ctx, device, cfg, opts, i)
			if err != nil {
				return fmt.Errorf("display %d: %w", i, err)
			}
			results[i] = displayResult{display: i, result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// runDisplay owns one pool for the duration of the scenario.
func runDisplay(ctx context.Context, device *halsurface.Device, cfg *config.Config, opts *simulateOptions, display int) (frameloop.Result, error) {
	factory, err := halsurface.NewFactory(device.Device(), device.Queue(), halsurface.Config{
		FenceTimeout: time.Duration(cfg.FenceTimeoutMS) * time.Millisecond,
		Label:        "display" + strconv.Itoa(display),
	})
	if err != nil {
		return frameloop.Result{}, err
	}

	r := halsurface.NewRenderer(device.Device(), cfg.Samples, cfg.ResourceBudget)
	defer r.Close()

	poolOpts := []surfacepool.Option{
		surfacepool.WithConfig(cfg.Pool),
		surfacepool.WithResourceCache(r.Resources()),
		surfacepool.WithStatsSink(surfacepool.LogSink{}),
	}
	if cfg.Influx.URL != "" {
		influxCfg := cfg.Influx
		influxCfg.Tags = maps.Clone(cfg.Influx.Tags)
		if influxCfg.Tags == nil {
			influxCfg.Tags = make(map[string]string)
		}
		influxCfg.Tags["display"] = strconv.Itoa(display)

		sink := influxsink.New(influxCfg)
		defer sink.Close()
		poolOpts = append(poolOpts, surfacepool.WithStatsSink(sink))
	}

	pool, err := surfacepool.New(factory, poolOpts...)
	if err != nil {
		return frameloop.Result{}, err
	}
	defer pool.Close()

	draw := func(s surfacepool.Surface, frame int) error {
		hs, ok := s.(*halsurface.Surface)
		if !ok {
			return fmt.Errorf("unexpected surface type %T", s)
		}
		return r.Clear(hs, frameColor(display, frame))
	}

	loop := frameloop.New(pool, draw, frameloop.Options{
		AgeEvery:      cfg.AgeEvery,
		ReportEvery:   cfg.ReportEvery,
		ResizeInPlace: opts.inPlace,
	})
	return loop.Run(ctx, cfg.Scenario)
}

// frameColor cycles the clear color so consecutive frames differ.
func frameColor(display, frame int) gputypes.Color {
	step := float64((display+frame)%8) / 7
	return gputypes.Color{R: step, G: 1 - step, B: 0.5, A: 1}
}

// writeResults renders results as a markdown table.
func writeResults(w io.Writer, results []displayResult) error {
	p := message.NewPrinter(language.English)

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"Display", "Frames", "Skipped", "Created", "Reused", "Cached", "Cached KB", "Resources", "Resource KB", "Purgeable KB"})

	var rows [][]string
	for _, r := range results {
		f := r.result.Final
		rows = append(rows, []string{
			strconv.Itoa(r.display),
			p.Sprintf("%d", r.result.Frames),
			p.Sprintf("%d", r.result.Skipped),
			p.Sprintf("%d", r.result.Created),
			p.Sprintf("%d", r.result.Reused),
			p.Sprintf("%d", f.Cached),
			p.Sprintf("%d", f.CachedBytes/1024),
			p.Sprintf("%d", f.ResourceCount),
			p.Sprintf("%d", f.ResourceBytes/1024),
			p.Sprintf("%d", f.ResourcePurgeableBytes/1024),
		})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := io.WriteString(w, buf.String())
	return err
}
