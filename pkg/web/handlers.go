package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-emotive/pkg/hub"
)

const replayLogs = 50

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Status())
}

func (s *Server) handleReports(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	reports := s.Reports()
	if limit > 0 && limit < len(reports) {
		reports = reports[len(reports)-limit:]
	}
	return c.JSON(reports)
}

func (s *Server) handleLogs(c *fiber.Ctx) error {
	return c.JSON(s.Logs())
}

// handleStatusWS sends the current status, then every update.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	var initial []hub.Message
	if msg, err := hub.EncodeJSON(s.Status()); err == nil {
		initial = append(initial, msg)
	}
	hub.NewClient(s.statusHub, c, initial...).Run()
}

// handleLogsWS replays the most recent log lines, then streams new entries.
func (s *Server) handleLogsWS(c *websocket.Conn) {
	logs := s.Logs()
	if len(logs) > replayLogs {
		logs = logs[len(logs)-replayLogs:]
	}
	initial := make([]hub.Message, 0, len(logs))
	for _, entry := range logs {
		if msg, err := hub.EncodeJSON(entry); err == nil {
			initial = append(initial, msg)
		}
	}
	hub.NewClient(s.logHub, c, initial...).Run()
}

func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}
