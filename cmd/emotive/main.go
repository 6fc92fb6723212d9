// emotive watches a camera, reads the emotion of the people it sees and
// says something about it.
//
// Usage:
//
//	emotive run --source webcam --emotion deepface
//	ROBOT_IP=192.168.68.80 emotive run --source robot --audio robot --tts elevenlabs
//	emotive phrases --phrases phrases.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-emotive/internal/config"
	"github.com/teslashibe/go-emotive/internal/log"
	"github.com/teslashibe/go-emotive/pkg/debug"
	"github.com/teslashibe/go-emotive/pkg/reactor"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "emotive",
		Short:         "React out loud to the emotions a camera sees",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "YAML config file")
	root.PersistentFlags().String("phrases", "", "YAML phrase file merged over the built-in phrases")
	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")

	root.AddCommand(newRunCmd(), newPhrasesCmd())
	return root
}

// flagKeys maps config keys to flag names.
var flagKeys = map[string]string{
	"phrases":                      "phrases",
	"log_level":                    "log-level",
	"source":                       "source",
	"robot_ip":                     "robot-ip",
	"camera.device":                "device",
	"camera.preset":                "preset",
	"model.path":                   "model",
	"model.format":                 "model-format",
	"pipeline.detection_threshold": "threshold",
	"emotion.backends":             "emotion",
	"emotion.deepface_url":         "deepface-url",
	"emotion.openai_model":         "openai-model",
	"speech.output":                "audio",
	"speech.providers":             "tts",
	"speech.voice":                 "voice",
	"session.emotion_threshold":    "emotion-threshold",
	"session.cooldown":             "cooldown",
	"session.reset_policy":         "reset-policy",
	"session.gate_inference":       "gate-inference",
	"display.window":               "window",
	"display.dashboard_port":       "dashboard",
	"debug":                        "debug",
	"debug_frames":                 "debug-frames",
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the perception loop until interrupted or 'q' is pressed",
		RunE:  runLoop,
	}
	f := cmd.Flags()
	f.String("source", config.SourceWebcam, "Frame source: webcam or robot")
	f.String("robot-ip", "", "Robot IP address (overrides ROBOT_IP env var)")
	f.String("device", "0", "Camera index, video file or stream URL")
	f.String("preset", "vga", "Camera preset: vga, 720p, 1080p")
	f.String("model", "models/yolov10n.onnx", "YOLO ONNX model path")
	f.String("model-format", "v10", "YOLO output layout: v8 or v10")
	f.Float64("threshold", 0.5, "Person detection confidence threshold")
	f.StringSlice("emotion", []string{"deepface"}, "Emotion backends in fallback order: deepface, openai")
	f.String("deepface-url", "http://localhost:5005", "DeepFace API base URL")
	f.String("openai-model", "gpt-4o-mini", "Vision model for the openai emotion backend")
	f.String("audio", config.OutputLog, "Speech output: log, local, robot")
	f.StringSlice("tts", nil, "TTS providers in fallback order: openai, elevenlabs, google")
	f.String("voice", "", "ElevenLabs voice preset or ID")
	f.Float64("emotion-threshold", 60, "Minimum dominant emotion score (0-100)")
	f.Duration("cooldown", 3*time.Second, "Minimum time between reactions")
	f.String("reset-policy", "label", "What losing sight of everyone clears: label or label+timer")
	f.Bool("gate-inference", false, "Skip emotion inference while the cooldown is active")
	f.Bool("window", true, "Show the OpenCV preview window")
	f.String("dashboard", "", "Serve the web dashboard on this port")
	f.Bool("debug", false, "Enable verbose debug logging")
	f.Bool("debug-frames", false, "Print a summary line for every frame")
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	keys := make(map[string]string, len(flagKeys))
	for key, name := range flagKeys {
		if cmd.Flags().Lookup(name) != nil {
			keys[key] = name
		}
	}
	return config.Load(path, config.WithFlags(cmd.Flags(), keys))
}

func runLoop(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level)
	debug.Enabled = cfg.Debug
	debug.Frames = cfg.DebugFrames
	logger := log.L()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("initialization failed", "error", err)
		return err
	}
	defer a.shutdown()

	if err := a.run(ctx); err != nil {
		logger.Error("session ended with error", "error", err)
		return err
	}
	return nil
}

func newPhrasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "phrases",
		Short: "Print the phrase spoken for each emotion",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			table, err := loadPhrases(cfg.Phrases)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, label := range table.Labels() {
				fmt.Fprintf(out, "%-10s %s\n", label, table.Lookup(label))
			}
			fmt.Fprintf(out, "%-10s %s\n", "(other)", table.Fallback())
			return nil
		},
	}
}

func loadPhrases(path string) (*reactor.PhraseTable, error) {
	if path == "" {
		return reactor.DefaultPhrases(), nil
	}
	return reactor.LoadPhrases(path)
}
