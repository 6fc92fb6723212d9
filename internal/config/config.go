package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Frame sources.
const (
	SourceWebcam = "webcam"
	SourceRobot  = "robot"
)

// Speech outputs.
const (
	OutputLog   = "log"   // print only
	OutputLocal = "local" // ffplay on this machine
	OutputRobot = "robot" // Opus/RTP to the robot speaker
)

// Config is the full process configuration.
type Config struct {
	Source  string `mapstructure:"source"`
	RobotIP string `mapstructure:"robot_ip"`

	Camera   CameraConfig   `mapstructure:"camera"`
	Model    ModelConfig    `mapstructure:"model"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Emotion  EmotionConfig  `mapstructure:"emotion"`
	Speech   SpeechConfig   `mapstructure:"speech"`
	Session  SessionConfig  `mapstructure:"session"`
	Display  DisplayConfig  `mapstructure:"display"`

	// Phrases is an optional YAML phrase file merged over the defaults.
	Phrases string `mapstructure:"phrases"`

	LogLevel    string `mapstructure:"log_level"`
	Debug       bool   `mapstructure:"debug"`
	DebugFrames bool   `mapstructure:"debug_frames"`
}

// CameraConfig selects the local capture device.
type CameraConfig struct {
	Device string `mapstructure:"device"`
	Preset string `mapstructure:"preset"`
}

// ModelConfig points at the person detector.
type ModelConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

// PipelineConfig holds the per-frame policy.
type PipelineConfig struct {
	DetectionThreshold float64 `mapstructure:"detection_threshold"`
}

// EmotionConfig selects classifier backends, tried in order.
type EmotionConfig struct {
	Backends    []string `mapstructure:"backends"`
	DeepFaceURL string   `mapstructure:"deepface_url"`
	OpenAIModel string   `mapstructure:"openai_model"`
	OpenAIKey   string   `mapstructure:"openai_key"`
}

// SpeechConfig selects synthesis providers and the output device.
type SpeechConfig struct {
	Output        string   `mapstructure:"output"`
	Providers     []string `mapstructure:"providers"`
	Voice         string   `mapstructure:"voice"`
	QueueSize     int      `mapstructure:"queue_size"`
	OpenAIKey     string   `mapstructure:"openai_key"`
	ElevenLabsKey string   `mapstructure:"elevenlabs_key"`
	GoogleKey     string   `mapstructure:"google_key"`
}

// SessionConfig holds the debounce policy.
type SessionConfig struct {
	EmotionThreshold float64       `mapstructure:"emotion_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
	ResetPolicy      string        `mapstructure:"reset_policy"`
	GateInference    bool          `mapstructure:"gate_inference"`
}

// DisplayConfig selects the display sinks.
type DisplayConfig struct {
	Window        bool   `mapstructure:"window"`
	DashboardPort string `mapstructure:"dashboard_port"`
}

// EnvPrefix prefixes every environment override, e.g. EMOTIVE_SESSION_COOLDOWN.
const EnvPrefix = "EMOTIVE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("source", SourceWebcam)
	v.SetDefault("robot_ip", RobotIP(""))
	v.SetDefault("camera.device", "0")
	v.SetDefault("camera.preset", "vga")
	v.SetDefault("model.path", "models/yolov10n.onnx")
	v.SetDefault("model.format", "v10")
	v.SetDefault("pipeline.detection_threshold", 0.5)
	v.SetDefault("emotion.backends", []string{"deepface"})
	v.SetDefault("emotion.deepface_url", "http://localhost:5005")
	v.SetDefault("emotion.openai_model", "gpt-4o-mini")
	v.SetDefault("speech.output", OutputLog)
	v.SetDefault("speech.providers", []string{})
	v.SetDefault("speech.queue_size", 4)
	v.SetDefault("session.emotion_threshold", 60.0)
	v.SetDefault("session.cooldown", 3*time.Second)
	v.SetDefault("session.reset_policy", "label")
	v.SetDefault("session.gate_inference", false)
	v.SetDefault("display.window", true)
	v.SetDefault("display.dashboard_port", "")
	v.SetDefault("log_level", "info")
}

// Provider keys also come from their conventional variables.
var envAliases = map[string][]string{
	"emotion.openai_key":    {"EMOTIVE_EMOTION_OPENAI_KEY", "OPENAI_API_KEY"},
	"speech.openai_key":     {"EMOTIVE_SPEECH_OPENAI_KEY", "OPENAI_API_KEY"},
	"speech.elevenlabs_key": {"EMOTIVE_SPEECH_ELEVENLABS_KEY", "ELEVENLABS_API_KEY"},
	"speech.google_key":     {"EMOTIVE_SPEECH_GOOGLE_KEY", "GOOGLE_API_KEY"},
}

// LoadOption customises Load.
type LoadOption func(*loader)

type loader struct {
	envFiles []string
	flags    *pflag.FlagSet
	keys     map[string]string
}

// WithEnvFiles loads these .env files instead of ./.env. Missing files are
// ignored.
func WithEnvFiles(files ...string) LoadOption {
	return func(l *loader) { l.envFiles = files }
}

// WithFlags binds command-line flags. keys maps a config key to a flag name;
// only flags the user actually set override other sources.
func WithFlags(fs *pflag.FlagSet, keys map[string]string) LoadOption {
	return func(l *loader) {
		l.flags = fs
		l.keys = keys
	}
}

// Load merges defaults, the YAML file at path (optional), environment and
// flags, in increasing priority, and validates the result.
func Load(path string, opts ...LoadOption) (*Config, error) {
	l := &loader{envFiles: []string{".env"}}
	for _, opt := range opts {
		opt(l)
	}
	for _, f := range l.envFiles {
		// godotenv never overrides variables already set.
		_ = godotenv.Load(f)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, err
		}
	}
	if err := v.BindEnv("robot_ip", "EMOTIVE_ROBOT_IP", "ROBOT_IP"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if l.flags != nil {
		for key, name := range l.keys {
			f := l.flags.Lookup(name)
			if f == nil {
				return nil, fmt.Errorf("config: unknown flag %q for %s", name, key)
			}
			if !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	switch c.Source {
	case SourceWebcam:
	case SourceRobot:
		if c.RobotIP == "" {
			errs = append(errs, errors.New("config: robot source needs ROBOT_IP or --robot-ip"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown source %q", c.Source))
	}

	switch c.Speech.Output {
	case OutputLog, OutputLocal:
	case OutputRobot:
		if c.RobotIP == "" {
			errs = append(errs, errors.New("config: robot speech output needs ROBOT_IP or --robot-ip"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown speech output %q", c.Speech.Output))
	}
	if c.Speech.Output != OutputLog && len(c.Speech.Providers) == 0 {
		errs = append(errs, errors.New("config: speech output needs at least one TTS provider"))
	}

	if t := c.Pipeline.DetectionThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("config: detection threshold %.2f outside 0-1", t))
	}
	if len(c.Emotion.Backends) == 0 {
		errs = append(errs, errors.New("config: no emotion backend"))
	}
	return errors.Join(errs...)
}
