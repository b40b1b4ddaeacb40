package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInit_InvalidLevel(t *testing.T) {
	before := Log
	if err := Init("loud"); err == nil {
		t.Fatal("Expected an error for an unknown level")
	}
	if Log != before {
		t.Error("A failed Init should keep the previous logger")
	}
}

func TestInit_Level(t *testing.T) {
	before := Log
	defer func() { Log = before }()

	if err := Init("warn"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if Log.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Error("Debug should be disabled at warn level")
	}
	if !Log.Desugar().Core().Enabled(zapcore.WarnLevel) {
		t.Error("Warn should be enabled at warn level")
	}
}
