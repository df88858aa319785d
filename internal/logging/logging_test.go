package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"prefabricator/internal/config"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefabricator.log")
	log := New("test", config.LogConfig{Level: "debug", File: path})
	log.Debug("template saved", zap.String("template", "/Game/Pair"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	line := strings.TrimSpace(string(data))
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("decoding %q: %v", line, err)
	}
	if entry["msg"] != "template saved" || entry["template"] != "/Game/Pair" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["level"] != "DEBUG" || entry["logger"] != "test" {
		t.Fatalf("unexpected level or name: %v", entry)
	}
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{level: "warn", want: zapcore.WarnLevel},
		{level: "ERROR", want: zapcore.ErrorLevel},
		{level: "", want: zapcore.InfoLevel},
		{level: "chatty", want: zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := New("test", config.LogConfig{Level: tt.level})
			if !log.Core().Enabled(tt.want) {
				t.Fatalf("expected %v enabled", tt.want)
			}
			if tt.want > zapcore.DebugLevel && log.Core().Enabled(tt.want-1) {
				t.Fatalf("expected %v disabled", tt.want-1)
			}
		})
	}
}
