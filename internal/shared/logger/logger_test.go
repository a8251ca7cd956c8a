package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		env, level string
		debug      bool
	}{
		{"local", "", true},
		{"prod", "", false},
		{"prod", "debug", true},
		{"local", "warn", false},
	}
	for _, tt := range tests {
		l, err := New("bet-service", tt.env, tt.level)
		if err != nil {
			t.Fatalf("New(%q, %q): %v", tt.env, tt.level, err)
		}
		if got := l.Core().Enabled(zapcore.DebugLevel); got != tt.debug {
			t.Errorf("env=%q level=%q debug enabled = %v, want %v", tt.env, tt.level, got, tt.debug)
		}
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New("bet-service", "prod", "loud"); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestComponentNilLogger(t *testing.T) {
	if Component(nil, "resolver") == nil {
		t.Fatal("Component(nil) should return a usable logger")
	}
}
