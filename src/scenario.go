package mac

/*------------------------------------------------------------------
 *
 * Purpose:	Describe and run a simulation:  some stations sharing
 *		one medium, and the traffic they send each other.
 *
 * Description:	A scenario file looks like this.
 *
 *		duration: 2s
 *		seed: 42
 *		frameErrorRate: 0.01
 *		stations:
 *		  - name: ap
 *		    config:
 *		      address: 02:00:00:00:00:01
 *		  - name: phone
 *		    config:
 *		      mode: edca
 *		      rateControl: { mode: aarf }
 *		flows:
 *		  - from: phone
 *		    to: ap
 *		    type: qos
 *		    tid: 6
 *		    size: 160
 *		    count: 100
 *		    interval: 20ms
 *
 *		A station's config is the same as a station
 *		configuration file.  Stations without an address get
 *		02:00:00:00:00:nn, numbered from 1 in the order listed.
 *		A flow's "to" is the name of a station or "broadcast".
 *
 *------------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

type StationSpec struct {
	Name   string    `yaml:"name"`
	Config yaml.Node `yaml:"config"`
}

type FlowSpec struct {
	From     string        `yaml:"from"`
	To       string        `yaml:"to"`
	Type     string        `yaml:"type"`
	TID      int           `yaml:"tid"`
	Size     int           `yaml:"size"` /* Payload octets. */
	Count    int           `yaml:"count"`
	Interval time.Duration `yaml:"interval"`
	Start    time.Duration `yaml:"start"`
}

type Scenario struct {
	Duration         time.Duration `yaml:"duration"`
	Seed             int64         `yaml:"seed"`
	PropagationDelay time.Duration `yaml:"propagationDelay"`
	FrameErrorRate   float64       `yaml:"frameErrorRate"`
	Stations         []StationSpec `yaml:"stations"`
	Flows            []FlowSpec    `yaml:"flows"`
}

const broadcastName = "broadcast"

func ParseScenario(data []byte) (*Scenario, error) {
	var s = Scenario{
		Duration:         time.Second,
		Seed:             1,
		PropagationDelay: DefaultPropagationDelay,
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

func LoadScenario(path string) (*Scenario, error) {
	var data, err = os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s, parseErr = ParseScenario(data)
	if parseErr != nil {
		return nil, fmt.Errorf("%s: %w", path, parseErr)
	}

	return s, nil
}

func (s *Scenario) validate() error {
	var errs []error

	if s.Duration <= 0 {
		errs = append(errs, invalid("duration must be positive"))
	}

	if s.PropagationDelay < 0 {
		errs = append(errs, invalid("negative propagationDelay"))
	}

	if s.FrameErrorRate < 0 || s.FrameErrorRate >= 1 {
		errs = append(errs, invalid("frameErrorRate %g not in [0, 1)", s.FrameErrorRate))
	}

	if len(s.Stations) == 0 {
		errs = append(errs, invalid("no stations"))
	}

	var names = make(map[string]bool)

	for i, st := range s.Stations {
		if st.Name == "" || st.Name == broadcastName {
			errs = append(errs, invalid("station %d: bad name %q", i+1, st.Name))
		}

		if names[st.Name] {
			errs = append(errs, invalid("station name %q used twice", st.Name))
		}

		names[st.Name] = true
	}

	for i, f := range s.Flows {
		if !names[f.From] {
			errs = append(errs, invalid("flow %d: unknown station %q", i+1, f.From))
		}

		if f.To != broadcastName && !names[f.To] {
			errs = append(errs, invalid("flow %d: unknown station %q", i+1, f.To))
		}

		var ft, typeErr = ParseFrameType(f.Type)
		if typeErr != nil {
			errs = append(errs, fmt.Errorf("flow %d: %w", i+1, typeErr))
		}

		if ft == FrameQoSData {
			if _, err := CategoryForTID(f.TID); err != nil {
				errs = append(errs, invalid("flow %d: %w", i+1, err))
			}
		}

		if f.Size < 0 || f.Count < 1 || f.Interval < 0 || f.Start < 0 {
			errs = append(errs, invalid("flow %d: need size >= 0, count >= 1, interval >= 0, start >= 0", i+1))
		}
	}

	return errors.Join(errs...)
}

type SimulationOption func(*Simulation)

func WithSimulationLogger(l *log.Logger) SimulationOption {
	return func(sim *Simulation) {
		sim.logger = l
	}
}

func WithSimulationTracer(t *Tracer) SimulationOption {
	return func(sim *Simulation) {
		sim.tracer = t
	}
}

// Simulation is a scenario ready to run.
type Simulation struct {
	Loop       *EventLoop
	Medium     *Medium
	Deliveries *DeliveryQueue

	scenario *Scenario
	names    []string
	engines  []*Engine
	byName   map[string]*Engine

	logger *log.Logger
	tracer *Tracer

	err error /* First submission which failed for a reason other than a full queue. */
}

/*------------------------------------------------------------------
 *
 * Name:	Build
 *
 * Purpose:	Create the stations, attach them to a medium, and
 *		schedule the traffic.
 *
 *------------------------------------------------------------------*/

func (s *Scenario) Build(opts ...SimulationOption) (*Simulation, error) {
	var sim = &Simulation{
		Loop:     NewEventLoop(),
		scenario: s,
		byName:   make(map[string]*Engine),
		logger:   log.New(io.Discard),
	}

	for _, o := range opts {
		o(sim)
	}

	sim.Medium = NewMedium(sim.Loop,
		WithPropagationDelay(s.PropagationDelay),
		WithFrameErrorRate(s.FrameErrorRate, rand.New(rand.NewSource(s.Seed))), //nolint:gosec
		WithMediumLogger(sim.logger))
	sim.Deliveries = NewDeliveryQueue(sim.Loop)

	for i, st := range s.Stations {
		var cfg, err = decodeConfigNode(&st.Config)
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", st.Name, err)
		}

		if cfg.Address == "" {
			cfg.Address = fmt.Sprintf("02:00:00:00:00:%02x", i+1)
		}

		var port = sim.Medium.Attach()
		var engineOpts = []Option{
			WithLogger(sim.logger),
			WithRand(rand.New(rand.NewSource(s.Seed + int64(i) + 1))), //nolint:gosec
		}

		if sim.tracer != nil {
			engineOpts = append(engineOpts, WithTracer(sim.tracer))
		}

		var addr, _ = ParseAddress(cfg.Address)

		var e, newErr = New(cfg, sim.Loop, port, sim.Deliveries.Station(addr), engineOpts...)
		if newErr != nil {
			return nil, fmt.Errorf("station %s: %w", st.Name, newErr)
		}

		port.Bind(e)

		sim.names = append(sim.names, st.Name)
		sim.engines = append(sim.engines, e)
		sim.byName[st.Name] = e
	}

	for _, f := range s.Flows {
		sim.schedule(f)
	}

	return sim, nil
}

func (sim *Simulation) schedule(flow FlowSpec) {
	var from = sim.byName[flow.From]
	var ft, _ = ParseFrameType(flow.Type)

	var to = Broadcast
	if flow.To != broadcastName {
		to = sim.byName[flow.To].Address()
	}

	for i := 0; i < flow.Count; i++ {
		var at = flow.Start + time.Duration(i)*flow.Interval

		sim.Loop.At(at, PriorityTimer, func() {
			var f = &Frame{
				Type:     ft,
				Receiver: to,
				TID:      flow.TID,
				Payload:  make([]byte, flow.Size),
			}

			var err = from.Submit(f)

			switch {
			case err == nil:
			case errors.Is(err, ErrQueueFull):
				sim.logger.Debug("submit failed", "from", flow.From, "err", err, "t", sim.Loop.Now())
			default:
				sim.fail(fmt.Errorf("flow from %s: %w", flow.From, err))
			}
		})
	}
}

// fail stops the run.  Only the first error is kept.
func (sim *Simulation) fail(err error) {
	sim.logger.Error("simulation stopped", "err", err, "t", sim.Loop.Now())

	if sim.err == nil {
		sim.err = err
	}

	sim.Loop.Stop()
}

func (sim *Simulation) Engines() []*Engine {
	return sim.engines
}

func (sim *Simulation) Engine(name string) (*Engine, bool) {
	var e, ok = sim.byName[name]

	return e, ok
}

// Run for the scenario's duration, or d if that is positive.  A frame
// the engine refuses for any reason but a full queue ends the run early;
// the report then covers what happened up to that point and the error
// is returned with it.
func (sim *Simulation) Run(d time.Duration) (*Report, error) {
	if d <= 0 {
		d = sim.scenario.Duration
	}

	sim.logger.Info("simulation starting", "stations", len(sim.engines), "duration", d)

	sim.Loop.RunUntil(d)

	var r = &Report{Duration: sim.Loop.Now(), Medium: sim.Medium.Stats()}

	var delivered = make(map[Address]int)
	var broken = make(map[Address]int)

	for _, item := range sim.Deliveries.Drain() {
		switch item.Kind {
		case DeliveryFrame:
			delivered[item.Station]++
		case DeliveryLinkBreak:
			broken[item.Station]++
		}
	}

	for i, e := range sim.engines {
		r.Stations = append(r.Stations, StationReport{
			Name:       sim.names[i],
			Address:    e.Address(),
			Categories: e.Status(),
			Stats:      e.Stats(),
			Rate:       e.Rate(),
			Delivered:  delivered[e.Address()],
			LinkBreaks: broken[e.Address()],
		})
	}

	sim.logger.Info("simulation finished", "t", sim.Loop.Now(), "transmissions", r.Medium.Transmissions)

	return r, sim.err
}

type StationReport struct {
	Name       string
	Address    Address
	Categories []CategoryStatus
	Stats      Stats
	Rate       Rate
	Delivered  int
	LinkBreaks int
}

type Report struct {
	Duration time.Duration
	Stations []StationReport
	Medium   MediumStats
}

func (r *Report) Print(w io.Writer) {
	var t = table.New().
		Border(lipgloss.NormalBorder()).
		Headers("station", "category", "queued", "sent", "retried", "given up", "dropped", "collisions")

	for _, st := range r.Stations {
		for _, c := range st.Categories {
			t.Row(st.Name, c.Category.String(),
				strconv.Itoa(c.Queued),
				strconv.FormatUint(c.Counters.Sent, 10),
				strconv.FormatUint(c.Counters.Retried, 10),
				strconv.FormatUint(c.Counters.GivenUp, 10),
				strconv.FormatUint(c.Counters.Dropped, 10),
				strconv.FormatUint(c.Counters.Collisions, 10))
		}
	}

	fmt.Fprintln(w, t.String())

	var rx = table.New().
		Border(lipgloss.NormalBorder()).
		Headers("station", "address", "received", "duplicates", "overheard", "link breaks", "rate")

	for _, st := range r.Stations {
		rx.Row(st.Name, st.Address.String(),
			strconv.Itoa(st.Delivered),
			strconv.FormatUint(st.Stats.Duplicates, 10),
			strconv.FormatUint(st.Stats.Overheard, 10),
			strconv.Itoa(st.LinkBreaks),
			st.Rate.String())
	}

	fmt.Fprintln(w, rx.String())

	fmt.Fprintf(w, "%s simulated, %d transmissions, %d corrupted receptions\n",
		r.Duration, r.Medium.Transmissions, r.Medium.Corrupted)
}

/* end scenario.go */
