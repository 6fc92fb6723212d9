package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/teslashibe/go-emotive/internal/config"
	"github.com/teslashibe/go-emotive/pkg/audio"
	"github.com/teslashibe/go-emotive/pkg/camera"
	"github.com/teslashibe/go-emotive/pkg/detection"
	"github.com/teslashibe/go-emotive/pkg/display"
	"github.com/teslashibe/go-emotive/pkg/emotion"
	"github.com/teslashibe/go-emotive/pkg/frame"
	"github.com/teslashibe/go-emotive/pkg/pipeline"
	"github.com/teslashibe/go-emotive/pkg/reactor"
	"github.com/teslashibe/go-emotive/pkg/session"
	"github.com/teslashibe/go-emotive/pkg/speech"
	"github.com/teslashibe/go-emotive/pkg/tts"
	"github.com/teslashibe/go-emotive/pkg/video"
	"github.com/teslashibe/go-emotive/pkg/web"
)

// drainTimeout bounds how long queued speech may finish on shutdown.
const drainTimeout = 5 * time.Second

// app owns every long-lived component of one run.
type app struct {
	logger   *slog.Logger
	machine  *session.Machine
	detector detection.Detector
	emotions emotion.Classifier
	speaker  *speech.Async
	voice    *speech.TTS
	server   *web.Server
}

// newApp builds every component. On error it releases whatever was already
// built and returns a nil app.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{logger: logger}
	var sink display.Sink
	defer func() {
		if err != nil {
			if sink != nil {
				sink.Close()
			}
			a.shutdown()
		}
	}()

	phrases, err := loadPhrases(cfg.Phrases)
	if err != nil {
		return nil, err
	}

	yolo := detection.DefaultYOLOConfig()
	yolo.ModelPath = cfg.Model.Path
	yolo.Format = cfg.Model.Format
	yolo.Logger = logger
	if a.detector, err = detection.NewYOLO(yolo); err != nil {
		return nil, fmt.Errorf("load detector: %w", err)
	}

	if a.emotions, err = buildClassifier(cfg, logger); err != nil {
		return nil, err
	}

	inner, err := a.buildSpeaker(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.speaker = speech.NewAsync(inner, cfg.Speech.QueueSize, logger)

	if sink, err = a.buildDisplay(ctx, cfg, logger); err != nil {
		return nil, err
	}

	policy, err := session.ParseResetPolicy(cfg.Session.ResetPolicy)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(a.detector, a.emotions,
		pipeline.WithDetectionThreshold(cfg.Pipeline.DetectionThreshold),
		pipeline.WithLogger(logger))

	a.machine, err = session.New(buildSource(cfg, logger), p, reactor.New(phrases, a.speaker, logger),
		session.WithEmotionThreshold(cfg.Session.EmotionThreshold),
		session.WithCooldown(cfg.Session.Cooldown),
		session.WithResetPolicy(policy),
		session.WithGateInference(cfg.Session.GateInference),
		session.WithDisplay(sink),
		session.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	logger.Info("ready", "run", a.machine.RunID(), "source", cfg.Source, "speech", cfg.Speech.Output)
	return a, nil
}

func (a *app) run(ctx context.Context) error {
	return a.machine.Run(ctx)
}

// shutdown lets queued speech finish, then releases everything the session
// does not own.
func (a *app) shutdown() {
	if a.speaker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		if err := a.speaker.Drain(ctx); err != nil {
			a.logger.Warn("speech queue not drained", "error", err)
		}
		cancel()
		a.speaker.Close()
	}
	if a.voice != nil {
		if err := a.voice.Close(); err != nil {
			a.logger.Warn("closing speech output", "error", err)
		}
	}
	if a.emotions != nil {
		a.emotions.Close()
	}
	if a.detector != nil {
		a.detector.Close()
	}
	if a.server != nil {
		if err := a.server.Shutdown(); err != nil {
			a.logger.Warn("stopping dashboard", "error", err)
		}
	}
}

func buildSource(cfg *config.Config, logger *slog.Logger) frame.Source {
	if cfg.Source == config.SourceRobot {
		vc := video.DefaultConfig(cfg.RobotIP)
		vc.SignallingURL = config.SignallingURL(cfg.RobotIP)
		vc.Logger = logger
		return video.NewClient(vc)
	}

	cc := camera.DefaultConfig()
	if p := camera.GetPreset(cfg.Camera.Preset); p != nil {
		cc = *p
	}
	cc.DeviceID = cfg.Camera.Device
	return camera.NewCapture(cc, logger)
}

func buildClassifier(cfg *config.Config, logger *slog.Logger) (emotion.Classifier, error) {
	var backends []emotion.Classifier
	for _, name := range cfg.Emotion.Backends {
		var (
			c   emotion.Classifier
			err error
		)
		switch name {
		case "deepface":
			c, err = emotion.NewDeepFace(
				emotion.WithBaseURL(cfg.Emotion.DeepFaceURL),
				emotion.WithLogger(logger))
		case "openai":
			c, err = emotion.NewOpenAI(
				emotion.WithAPIKey(cfg.Emotion.OpenAIKey),
				emotion.WithModel(cfg.Emotion.OpenAIModel),
				emotion.WithLogger(logger))
		default:
			err = fmt.Errorf("unknown emotion backend %q", name)
		}
		if err != nil {
			return nil, fmt.Errorf("emotion backend %s: %w", name, err)
		}
		backends = append(backends, c)
	}
	if len(backends) == 1 {
		return backends[0], nil
	}
	return emotion.NewChainWithLogger(logger, backends...)
}

func (a *app) buildSpeaker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (speech.Speaker, error) {
	printer := speech.NewLog(os.Stdout, logger)
	if cfg.Speech.Output == config.OutputLog {
		return printer, nil
	}

	provider, err := buildTTS(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var player audio.Player
	switch cfg.Speech.Output {
	case config.OutputRobot:
		rc := audio.DefaultRTPConfig(cfg.RobotIP)
		rc.Addr = config.AudioAddr(cfg.RobotIP)
		rc.Logger = logger
		if player, err = audio.NewRTPPlayer(rc); err != nil {
			provider.Close()
			return nil, fmt.Errorf("robot audio: %w", err)
		}
	default:
		ep := audio.NewExecPlayer()
		ep.Logger = logger
		player = ep
	}

	a.voice = speech.NewTTS(tts.NewCache(provider, tts.DefaultCacheSize), player, logger)
	return speech.Multi{printer, a.voice}, nil
}

func buildTTS(ctx context.Context, cfg *config.Config, logger *slog.Logger) (tts.Provider, error) {
	var providers []tts.Provider
	for _, name := range cfg.Speech.Providers {
		var (
			p   tts.Provider
			err error
		)
		switch name {
		case "openai":
			p, err = tts.NewOpenAI(
				tts.WithAPIKey(cfg.Speech.OpenAIKey),
				tts.WithLogger(logger))
		case "elevenlabs":
			voice := cfg.Speech.Voice
			if voice == "" {
				voice = tts.DefaultElevenLabsVoice
			}
			p, err = tts.NewElevenLabs(
				tts.WithAPIKey(cfg.Speech.ElevenLabsKey),
				tts.WithVoice(tts.ResolveElevenLabsVoice(voice)),
				tts.WithLogger(logger))
		case "google":
			opts := []tts.Option{tts.WithLogger(logger)}
			if cfg.Speech.GoogleKey != "" {
				opts = append(opts, tts.WithAPIKey(cfg.Speech.GoogleKey))
			}
			p, err = tts.NewGoogle(ctx, opts...)
		default:
			err = fmt.Errorf("unknown TTS provider %q", name)
		}
		if err != nil {
			for _, prev := range providers {
				prev.Close()
			}
			return nil, fmt.Errorf("tts %s: %w", name, err)
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		return nil, errors.New("no TTS provider configured")
	}
	if len(providers) == 1 {
		return providers[0], nil
	}
	return tts.NewChainWithLogger(logger, providers...)
}

func (a *app) buildDisplay(ctx context.Context, cfg *config.Config, logger *slog.Logger) (display.Sink, error) {
	var sinks display.Multi
	if cfg.Display.Window {
		sinks = append(sinks, display.NewWindow(display.DefaultWindowTitle, display.DefaultQuitKey))
	}
	if port := cfg.Display.DashboardPort; port != "" {
		a.server = web.NewServer(port, logger)
		a.server.StartAsync(ctx)
		dc := display.DefaultDashboardConfig()
		dc.Source = cfg.Source
		dc.Logger = logger
		sinks = append(sinks, display.NewDashboard(a.server, dc))
	}
	switch len(sinks) {
	case 0:
		return display.Nop{}, nil
	case 1:
		return sinks[0], nil
	}
	return sinks, nil
}
