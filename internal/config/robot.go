// Package config loads process configuration for go-emotive commands from
// flags, EMOTIVE_* environment variables, an optional YAML file and .env.
package config

import (
	"fmt"
	"os"
)

// Robot network defaults.
const (
	DefaultSignallingPort = 8443
	DefaultAudioPort      = 5000
)

// RobotIP returns the robot IP from ROBOT_IP env var.
// Falls back to the provided default if not set.
func RobotIP(defaultIP string) string {
	if ip := os.Getenv("ROBOT_IP"); ip != "" {
		return ip
	}
	return defaultIP
}

// SignallingURL returns the WebRTC signalling URL of the robot camera.
func SignallingURL(robotIP string) string {
	return fmt.Sprintf("ws://%s:%d", robotIP, DefaultSignallingPort)
}

// AudioAddr returns the UDP address of the robot speaker stream.
func AudioAddr(robotIP string) string {
	return fmt.Sprintf("%s:%d", robotIP, DefaultAudioPort)
}
