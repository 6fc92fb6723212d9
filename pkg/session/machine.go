package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-emotive/pkg/debug"
	"github.com/teslashibe/go-emotive/pkg/display"
	"github.com/teslashibe/go-emotive/pkg/frame"
	"github.com/teslashibe/go-emotive/pkg/pipeline"
	"github.com/teslashibe/go-emotive/pkg/reactor"
)

// Stats counts what the loop has done.
type Stats struct {
	Frames         uint64
	Misses         uint64 // reads that produced no frame
	Reports        uint64
	Resets         uint64
	DetectErrors   uint64
	ClassifyErrors uint64
	RenderErrors   uint64
}

// Machine sequences source, pipeline, decision, reactor and display, one
// frame at a time. State is only touched from the loop goroutine; the
// mutex guards readers such as the dashboard.
type Machine struct {
	source   frame.Source
	pipeline *pipeline.Pipeline
	reactor  *reactor.Reactor
	display  display.Sink
	config   *Config
	logger   *slog.Logger
	runID    uuid.UUID

	mu    sync.RWMutex
	state State
	stats Stats
}

// New creates a machine. It does not touch the source until Run.
func New(src frame.Source, p *pipeline.Pipeline, r *reactor.Reactor, opts ...Option) (*Machine, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil || p == nil || r == nil {
		return nil, errors.New("session: source, pipeline and reactor are required")
	}
	if cfg.Display == nil {
		cfg.Display = display.Nop{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	id := uuid.New()
	return &Machine{
		source:   src,
		pipeline: p,
		reactor:  r,
		display:  cfg.Display,
		config:   cfg,
		runID:    id,
		logger:   cfg.Logger.With("component", "session", "run", id.String()),
	}, nil
}

// RunID identifies this machine in logs and on the dashboard.
func (m *Machine) RunID() string {
	return m.runID.String()
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Stats returns a snapshot of the counters.
func (m *Machine) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// Run opens the source and processes frames until ctx is cancelled, the
// display asks to quit, or the source is closed underneath it. Failing to
// open the source is returned before any frame is read. The source and
// display are released on every exit path.
func (m *Machine) Run(ctx context.Context) error {
	if err := m.source.Open(ctx); err != nil {
		if !frame.IsFatal(err) {
			err = &frame.OpenError{Source: "source", Err: err}
		}
		m.logger.Error("cannot open frame source", "error", err)
		m.closeDisplay()
		return err
	}
	m.logger.Info("session started",
		"cooldown", m.config.Cooldown,
		"threshold", m.config.EmotionThreshold,
		"reset_policy", m.config.ResetPolicy.String(),
		"gate_inference", m.config.GateInference)

	defer func() {
		if cerr := m.source.Close(); cerr != nil {
			m.logger.Warn("closing source", "error", cerr)
		}
		m.closeDisplay()
		st := m.Stats()
		m.logger.Info("session stopped", "frames", st.Frames, "reports", st.Reports)
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		f, err := m.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, frame.ErrClosed) {
				return err
			}
			m.miss(err)
			if !m.sleep(ctx) {
				return nil
			}
			continue
		}
		if !f.Valid() {
			m.miss(frame.ErrNoFrame)
			continue
		}

		if d := m.Tick(ctx, f); d.Quit {
			m.logger.Info("quit requested from display")
			return nil
		}
	}
}

func (m *Machine) miss(err error) {
	m.mu.Lock()
	m.stats.Misses++
	m.mu.Unlock()
	if errors.Is(err, frame.ErrNoFrame) {
		debug.FrameLog("no frame\n")
		return
	}
	m.logger.Warn("frame read failed", "stage", "source", "error", err)
}

func (m *Machine) sleep(ctx context.Context) bool {
	if m.config.RetryDelay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(m.config.RetryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Tick processes one frame: detect, classify, decide, react, render.
// Nothing that goes wrong inside a frame is returned.
func (m *Machine) Tick(ctx context.Context, f *frame.Frame) Decision {
	state := m.State()
	if !f.Valid() {
		return Decision{State: state}
	}
	now := m.config.Clock()

	m.mu.Lock()
	m.stats.Frames++
	n := m.stats.Frames
	m.mu.Unlock()
	if every := m.config.TraceEvery; every > 0 && n%every == 0 {
		b := f.Bounds()
		m.logger.Debug("frame", "n", n, "seq", f.Seq, "width", b.Dx(), "height", b.Dy())
	}

	var out pipeline.Outcome
	if m.config.GateInference && !state.CooledDown(now, m.config.Cooldown) {
		out = m.pipeline.Detect(ctx, f)
	} else {
		out = m.pipeline.Process(ctx, f)
	}

	d := Decide(state, *m.config, out, now)
	if d.Reset {
		m.logger.Info("no person detected, resetting state", "last_emotion", state.LastEmotion)
	}
	if d.Report != nil {
		d.Report.Phrase = m.reactor.React(ctx, d.Report.Label)
		m.logger.Info("emotion reported", "emotion", d.Report.Label, "score", d.Report.Score, "people", len(out.Detections))
	}
	if d.Passed > 0 {
		m.logger.Debug("eligible emotions passed over", "count", d.Passed)
	}

	m.commit(d, out)
	debug.FrameLog("frame %d: people=%d results=%d phase=%s latency=%v\n",
		f.Seq, len(out.Detections), len(out.Results), d.State.PhaseAt(now, m.config.Cooldown), out.Latency)

	quit, err := m.display.Render(ctx, m.overlay(f, out, d, now))
	if err != nil {
		m.mu.Lock()
		m.stats.RenderErrors++
		m.mu.Unlock()
		m.logger.Warn("render failed", "stage", "render", "error", err)
	}
	d.Quit = quit
	return d
}

// commit stores the new state. A report is committed even when speech
// failed; the reactor only logs such failures.
func (m *Machine) commit(d Decision, out pipeline.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = d.State
	if d.Report != nil {
		m.stats.Reports++
	}
	if d.Reset {
		m.stats.Resets++
	}
	if out.DetectErr != nil {
		m.stats.DetectErrors++
	}
	for _, r := range out.Results {
		if r.Err != nil {
			m.stats.ClassifyErrors++
		}
	}
}

func (m *Machine) overlay(f *frame.Frame, out pipeline.Outcome, d Decision, now time.Time) display.Overlay {
	o := display.FromOutcome(f, out)
	o.RunID = m.RunID()
	o.Phase = d.State.PhaseAt(now, m.config.Cooldown).String()
	o.LastEmotion = d.State.LastEmotion
	o.LastReport = d.State.LastReport
	if r := d.Report; r != nil {
		o.Reaction = &display.Reaction{Label: r.Label, Score: r.Score, Phrase: r.Phrase, Time: r.Time}
	}
	return o
}

func (m *Machine) closeDisplay() {
	if err := m.display.Close(); err != nil {
		m.logger.Warn("closing display", "error", err)
	}
}
