package config

import "testing"

func TestDefaults(t *testing.T) {
	t.Setenv("EMOSCAN_PORT", "")
	t.Setenv("EMOSCAN_CAMERA", "")
	t.Setenv("EMOSCAN_DETECTOR_MODEL", "")
	t.Setenv("EMOSCAN_EMOTION_MODEL", "")
	t.Setenv("LOG_LEVEL", "")

	if got := Port(); got != DefaultPort {
		t.Errorf("Port: got %q, want %q", got, DefaultPort)
	}
	if got := Camera(); got != DefaultCamera {
		t.Errorf("Camera: got %d, want %d", got, DefaultCamera)
	}
	if got := DetectorModel(); got != DefaultDetectorModel {
		t.Errorf("DetectorModel: got %q", got)
	}
	if got := EmotionModel(); got != DefaultEmotionModel {
		t.Errorf("EmotionModel: got %q", got)
	}
	if got := LogLevel(); got != DefaultLogLevel {
		t.Errorf("LogLevel: got %q", got)
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("EMOSCAN_PORT", "9000")
	t.Setenv("EMOSCAN_DETECTOR_MODEL", "/opt/yunet.onnx")
	t.Setenv("LOG_LEVEL", "debug")

	if got := Port(); got != "9000" {
		t.Errorf("Port: got %q", got)
	}
	if got := DetectorModel(); got != "/opt/yunet.onnx" {
		t.Errorf("DetectorModel: got %q", got)
	}
	if got := LogLevel(); got != "debug" {
		t.Errorf("LogLevel: got %q", got)
	}
}

func TestCamera(t *testing.T) {
	tests := []struct {
		env  string
		want int
	}{
		{"2", 2},
		{"0", 0},
		{"-1", DefaultCamera},
		{"front", DefaultCamera},
	}

	for _, tt := range tests {
		t.Setenv("EMOSCAN_CAMERA", tt.env)
		if got := Camera(); got != tt.want {
			t.Errorf("Camera(%q): got %d, want %d", tt.env, got, tt.want)
		}
	}
}
