package main

import (
	"testing"

	"github.com/teslashibe/go-emoscan/pkg/annotate"
	"github.com/teslashibe/go-emoscan/pkg/emotion"
	"github.com/teslashibe/go-emoscan/pkg/scanner"
)

func TestFormatUpdate(t *testing.T) {
	tests := []struct {
		name string
		in   scanner.Update
		want string
	}{
		{
			name: "lifecycle",
			in:   scanner.Update{Status: scanner.StatusComplete},
			want: "── complete ──",
		},
		{
			name: "no face",
			in:   scanner.Update{Seq: 3, Text: "No Face Detected", State: "no_face"},
			want: "#3     No Face Detected           0% [no_face]",
		},
		{
			name: "face",
			in: scanner.Update{Seq: 12, Text: "Happy (90.0%)", Confidence: 90, State: "accepted",
				Box: &emotion.FaceBox{X: 40, Y: 30, Width: 60, Height: 64}},
			want: "#12    Happy (90.0%)             90% [accepted] face 60x64@40,30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatUpdate(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCameraConfigFromOptions(t *testing.T) {
	opts := Options{Device: 1, Width: 640, Height: 480, NoMirror: true}
	cfg, err := opts.cameraConfig()
	if err != nil {
		t.Fatalf("cameraConfig: %v", err)
	}
	if cfg.Device != 1 || cfg.Width != 640 || cfg.Mirror {
		t.Errorf("got %+v", cfg)
	}

	opts.Width = 10
	if _, err := opts.cameraConfig(); err == nil {
		t.Error("expected error for tiny width")
	}
}

func TestOptionsStyle(t *testing.T) {
	futuristic, _ := annotate.LookupTheme("futuristic")

	tests := []struct {
		theme   string
		want    annotate.Style
		wantErr bool
	}{
		{"", annotate.DefaultStyle(), false},
		{"pastel", annotate.DefaultStyle(), false},
		{"futuristic", futuristic, false},
		{"neon", annotate.Style{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.theme, func(t *testing.T) {
			got, err := Options{Theme: tt.theme}.style()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
