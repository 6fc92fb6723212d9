// Package web serves the live dashboard: pipeline status, spoken reports,
// recent log lines and the annotated camera stream.
package web

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-emotive/pkg/hub"
)

//go:embed static
var staticFiles embed.FS

const (
	maxLogs    = 500
	maxReports = 100
)

// Status is the loop state shown on the dashboard.
type Status struct {
	RunID           string    `json:"run_id"`
	Source          string    `json:"source"`
	SourceConnected bool      `json:"source_connected"`
	Phase           string    `json:"phase"`
	LastEmotion     string    `json:"last_emotion"`
	LastReport      time.Time `json:"last_report"`
	PersonDetected  bool      `json:"person_detected"`
	People          int       `json:"people"`
	Frames          uint64    `json:"frames"`
	LatencyMs       int64     `json:"latency_ms"`
	Reactions       int64     `json:"reactions"`
}

// LogEntry represents a log line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, detect, emotion, speech, error
	Message string `json:"message"`
}

// Report is one spoken reaction.
type Report struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Emotion string    `json:"emotion"`
	Score   float64   `json:"score"`
	Phrase  string    `json:"phrase"`
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	status   Status
	statusMu sync.RWMutex

	logs   []LogEntry
	logsMu sync.RWMutex

	reports   []Report
	reportsMu sync.RWMutex

	statusHub *hub.Hub
	logHub    *hub.Hub
	cameraHub *hub.Hub

	cancel context.CancelFunc
}

// NewServer creates a dashboard server listening on port once started.
func NewServer(port string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		port:      port,
		logger:    logger.With("component", "web"),
		logs:      make([]LogEntry, 0, maxLogs),
		reports:   make([]Report, 0, maxReports),
		statusHub: hub.New("status", logger),
		logHub:    hub.New("logs", logger),
		cameraHub: hub.New("camera", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Emotive Dashboard",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/reports", s.handleReports)
	api.Get("/logs", s.handleLogs)
	app.Get("/health", s.handleHealth)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	if sub, err := fs.Sub(staticFiles, "static"); err == nil {
		app.Use("/", filesystem.New(filesystem.Config{
			Root:  http.FS(sub),
			Index: "index.html",
		}))
	}

	s.app = app
	return s
}

// App exposes the fiber app for in-process requests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and blocks serving HTTP until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.statusHub.Run(ctx)
	go s.logHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	s.logger.Info("dashboard listening", "url", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Warn("web server stopped", "error", err)
		}
	}()
}

// Shutdown stops the hubs and the HTTP server.
func (s *Server) Shutdown() error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.app.Shutdown()
}

// UpdateStatus mutates the status and broadcasts the result.
func (s *Server) UpdateStatus(update func(*Status)) {
	s.statusMu.Lock()
	update(&s.status)
	st := s.status
	s.statusMu.Unlock()

	if err := s.statusHub.BroadcastJSON(st); err != nil {
		s.logger.Debug("status broadcast failed", "error", err)
	}
}

// Status returns a copy of the current status.
func (s *Server) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	_ = s.logHub.BroadcastJSON(entry)
}

// AddReport records a spoken reaction and returns it with a fresh ID.
func (s *Server) AddReport(emotion string, score float64, phrase string, at time.Time) Report {
	r := Report{
		ID:      uuid.NewString(),
		Time:    at,
		Emotion: emotion,
		Score:   score,
		Phrase:  phrase,
	}

	s.reportsMu.Lock()
	s.reports = append(s.reports, r)
	if len(s.reports) > maxReports {
		s.reports = s.reports[1:]
	}
	s.reportsMu.Unlock()

	s.AddLog("speech", emotion+": "+phrase)
	return r
}

// Reports returns the recorded reports, oldest first.
func (s *Server) Reports() []Report {
	s.reportsMu.RLock()
	defer s.reportsMu.RUnlock()
	out := make([]Report, len(s.reports))
	copy(out, s.reports)
	return out
}

// Logs returns the buffered log entries, oldest first.
func (s *Server) Logs() []LogEntry {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	out := make([]LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// SendCameraFrame sends a JPEG frame to all camera clients.
func (s *Server) SendCameraFrame(jpegData []byte) {
	s.cameraHub.BroadcastBinary(jpegData)
}

// CameraClients returns the number of connected camera viewers.
func (s *Server) CameraClients() int {
	return s.cameraHub.ClientCount()
}
