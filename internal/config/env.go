// Package config provides environment lookups for go-emoscan commands.
// Flags set on the command line take precedence over these.
package config

import (
	"os"
	"strconv"
)

// Defaults used when the environment is silent.
const (
	DefaultPort          = "8080"
	DefaultCamera        = 0
	DefaultDetectorModel = "models/face_detection_yunet.onnx"
	DefaultEmotionModel  = "models/emotion_fer2013.onnx"
	DefaultLogLevel      = "info"
)

// Port returns the HTTP port from EMOSCAN_PORT or DefaultPort.
func Port() string {
	if port := os.Getenv("EMOSCAN_PORT"); port != "" {
		return port
	}
	return DefaultPort
}

// Camera returns the capture device index from EMOSCAN_CAMERA.
// Non-numeric values fall back to DefaultCamera.
func Camera() int {
	if v := os.Getenv("EMOSCAN_CAMERA"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return DefaultCamera
}

// DetectorModel returns the face detector model path from
// EMOSCAN_DETECTOR_MODEL or DefaultDetectorModel.
func DetectorModel() string {
	if path := os.Getenv("EMOSCAN_DETECTOR_MODEL"); path != "" {
		return path
	}
	return DefaultDetectorModel
}

// EmotionModel returns the expression model path from
// EMOSCAN_EMOTION_MODEL or DefaultEmotionModel.
func EmotionModel() string {
	if path := os.Getenv("EMOSCAN_EMOTION_MODEL"); path != "" {
		return path
	}
	return DefaultEmotionModel
}

// LogLevel returns LOG_LEVEL or DefaultLogLevel.
func LogLevel() string {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return level
	}
	return DefaultLogLevel
}
