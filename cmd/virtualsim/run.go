package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/virtuallist/pkg/engine"
	"github.com/go-drift/virtuallist/pkg/perf"
	"github.com/go-drift/virtuallist/pkg/recycle"
)

type simOptions struct {
	configPath   string
	scenarioPath string
	items        int
	frames       int
	sizeMin      float64
	sizeMax      float64
	pattern      string
	velocity     float64
	seed         int64
	monitor      bool
}

// scenario is the YAML form of a workload description. Zero fields
// leave the corresponding flag defaults in place.
type scenario struct {
	Items    int     `yaml:"items"`
	Frames   int     `yaml:"frames"`
	SizeMin  float64 `yaml:"sizeMin"`
	SizeMax  float64 `yaml:"sizeMax"`
	Pattern  string  `yaml:"pattern"`
	Velocity float64 `yaml:"velocity"`
	Seed     int64   `yaml:"seed"`
}

func (o *simOptions) applyScenario(s scenario) {
	if s.Items > 0 {
		o.items = s.Items
	}
	if s.Frames > 0 {
		o.frames = s.Frames
	}
	if s.SizeMin > 0 {
		o.sizeMin = s.SizeMin
	}
	if s.SizeMax > 0 {
		o.sizeMax = s.SizeMax
	}
	if s.Pattern != "" {
		o.pattern = s.Pattern
	}
	if s.Velocity != 0 {
		o.velocity = s.Velocity
	}
	if s.Seed != 0 {
		o.seed = s.Seed
	}
}

func loadScenario(path string) (scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scenario{}, err
	}
	var s scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return scenario{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return s, nil
}

func newRunCmd() *cobra.Command {
	opts := simOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a synthetic scroll workload",
		Long: "Run feeds a generated scroll trace through the engine frame by\n" +
			"frame and prints range, recycling and frame statistics at the end.",
		Example: `  virtualsim run --items 5000 --frames 600 --pattern flick
  virtualsim run --config virtuallist.yaml --velocity 2400`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.scenarioPath != "" {
				s, err := loadScenario(opts.scenarioPath)
				if err != nil {
					return err
				}
				opts.applyScenario(s)
			}
			return runSimulation(zerolog.Ctx(cmd.Context()), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "engine configuration file (YAML)")
	cmd.Flags().StringVarP(&opts.scenarioPath, "scenario", "s", "", "workload scenario file (YAML)")
	cmd.Flags().IntVar(&opts.items, "items", 2000, "number of list items")
	cmd.Flags().IntVar(&opts.frames, "frames", 600, "frames to simulate at 60fps")
	cmd.Flags().Float64Var(&opts.sizeMin, "size-min", 40, "minimum item extent")
	cmd.Flags().Float64Var(&opts.sizeMax, "size-max", 160, "maximum item extent")
	cmd.Flags().StringVar(&opts.pattern, "pattern", "ramp", "scroll pattern: constant, ramp or flick")
	cmd.Flags().Float64Var(&opts.velocity, "velocity", 1200, "peak scroll velocity in units per second")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "random seed for item extents")
	cmd.Flags().BoolVar(&opts.monitor, "monitor", true, "enable performance monitoring")

	return cmd
}

// frameInterval is the simulated display refresh period.
const frameInterval = 16 * time.Millisecond

type simRow struct {
	index int
}

func runSimulation(log *zerolog.Logger, opts simOptions) error {
	if opts.items <= 0 || opts.frames <= 0 {
		return fmt.Errorf("items and frames must be positive")
	}
	if opts.sizeMax < opts.sizeMin || opts.sizeMin <= 0 {
		return fmt.Errorf("invalid extent range [%g, %g]", opts.sizeMin, opts.sizeMax)
	}
	velocityAt, err := patternFunc(opts.pattern, opts.velocity, opts.frames)
	if err != nil {
		return err
	}

	cfg := engine.DefaultConfig()
	if opts.configPath != "" {
		if cfg, err = engine.LoadConfig(opts.configPath); err != nil {
			return err
		}
	}
	cfg.EnablePerformanceMonitoring = opts.monitor

	rng := rand.New(rand.NewSource(opts.seed))
	extents := make([]float64, opts.items)
	data := make([]any, opts.items)
	var total float64
	for i := range extents {
		extents[i] = opts.sizeMin + rng.Float64()*(opts.sizeMax-opts.sizeMin)
		data[i] = simRow{index: i}
		total += extents[i]
	}

	adapter := engine.Adapter{
		Build: func(item any, index int) (recycle.Renderable, error) {
			return item, nil
		},
		ItemType: func(item any, index int) string {
			if extents[index] >= (opts.sizeMin+opts.sizeMax)/2 {
				return "tall"
			}
			return "short"
		},
	}

	const viewportW, viewportH = 390.0, 844.0

	clock := time.Unix(0, 0)
	e := engine.New(cfg)
	e.SetClock(func() time.Time { return clock })
	e.Initialize(data, adapter, viewportW, viewportH, false)

	var endReached int
	e.OnEndReached(func() { endReached++ })

	log.Info().
		Int("items", opts.items).
		Int("frames", opts.frames).
		Str("pattern", opts.pattern).
		Float64("totalExtent", math.Round(total)).
		Msg("simulation start")

	measured := make([]bool, opts.items)
	maxOffset := total - viewportH
	if maxOffset < 0 {
		maxOffset = 0
	}

	offset := 0.0
	for frame := 0; frame < opts.frames; frame++ {
		clock = clock.Add(frameInterval)
		offset += velocityAt(frame) * frameInterval.Seconds()
		if offset < 0 {
			offset = 0
		}
		if offset > maxOffset {
			offset = maxOffset
		}

		e.UpdateScrollPosition(offset)
		for _, child := range e.BuildChildren() {
			// Layout measures an item the first time it appears.
			if child.Kind == engine.ChildItem && !measured[child.VirtualIndex] {
				measured[child.VirtualIndex] = true
				e.RecordItemMeasurement(child.VirtualIndex, extents[child.VirtualIndex], child.ItemType)
			}
		}
		for e.Step() {
		}

		if (frame+1)%120 == 0 {
			info := e.DebugInfo()
			log.Debug().
				Int("frame", frame+1).
				Float64("offset", math.Round(offset)).
				Stringer("visible", info.State.Visible).
				Stringer("render", info.State.Render).
				Float64("velocity", math.Round(info.Velocity)).
				Msg("checkpoint")
		}
	}

	report(log, e, endReached)
	e.Dispose()
	return nil
}

func report(log *zerolog.Logger, e *engine.Engine, endReached int) {
	info := e.DebugInfo()
	metrics := e.Metrics()

	log.Info().
		Stringer("visible", info.State.Visible).
		Stringer("render", info.State.Render).
		Stringer("buffer", info.State.Buffer).
		Int("measuredItems", info.MeasuredItems).
		Float64("globalEstimate", math.Round(info.GlobalEstimate*10)/10).
		Msg("final state")

	log.Info().
		Int("created", info.Recycler.Created).
		Int("recycled", info.Recycler.Recycled).
		Int("disposed", info.Recycler.Disposed).
		Int("active", info.Recycler.Active).
		Int("pooled", info.Recycler.Pooled).
		Float64("recycleRatio", math.Round(info.RecycleRatio*100)/100).
		Int("endReached", endReached).
		Msg("recycling")

	evt := log.Info().
		Float64("fps", math.Round(metrics.FPS)).
		Dur("avgFrame", metrics.AverageFrameTime).
		Dur("maxFrame", metrics.MaxFrameTime).
		Int("frames", metrics.FrameCount)
	for _, alert := range metrics.ActiveAlerts {
		evt = evt.Str("alert."+alert.Code, alert.Message)
	}
	evt.Msg("performance")

	drainAlerts(log, e.Alerts())
}

func drainAlerts(log *zerolog.Logger, alerts <-chan perf.Alert) {
	if alerts == nil {
		return
	}
	for {
		select {
		case alert := <-alerts:
			log.Warn().
				Str("id", alert.ID).
				Str("code", alert.Code).
				Float64("value", alert.Value).
				Msg(alert.Message)
		default:
			return
		}
	}
}

// patternFunc maps a frame number to the scroll velocity for that
// frame, in units per second.
func patternFunc(name string, peak float64, frames int) (func(int) float64, error) {
	switch name {
	case "constant":
		return func(int) float64 { return peak }, nil
	case "ramp":
		// Triangle wave: accelerate to peak mid-run, decelerate back.
		half := float64(frames) / 2
		return func(frame int) float64 {
			distance := math.Abs(float64(frame) - half)
			return peak * (1 - distance/half)
		}, nil
	case "flick":
		// Bursts of fast scrolling separated by idle stretches.
		return func(frame int) float64 {
			if (frame/30)%2 == 0 {
				return peak
			}
			return 0
		}, nil
	default:
		return nil, fmt.Errorf("unknown pattern %q (want constant, ramp or flick)", name)
	}
}
