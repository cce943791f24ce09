package utils

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		debug      bool
		lowest     zapcore.Level
		suppressed zapcore.Level
	}{
		{debug: true, lowest: zap.DebugLevel, suppressed: zapcore.InvalidLevel},
		{debug: false, lowest: zap.InfoLevel, suppressed: zap.DebugLevel},
	}
	for _, tt := range tests {
		logger, err := NewLogger(tt.debug)
		if err != nil {
			t.Fatalf("NewLogger(%v): %v", tt.debug, err)
		}
		core := logger.Core()
		if !core.Enabled(tt.lowest) {
			t.Errorf("NewLogger(%v) should emit %s", tt.debug, tt.lowest)
		}
		if tt.suppressed != zapcore.InvalidLevel && core.Enabled(tt.suppressed) {
			t.Errorf("NewLogger(%v) should drop %s", tt.debug, tt.suppressed)
		}
		_ = logger.Sync()
	}
}
