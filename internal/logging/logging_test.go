package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetup(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	tests := []struct {
		level    string
		pretty   bool
		expected zerolog.Level
		wantErr  bool
	}{
		{level: "debug", expected: zerolog.DebugLevel},
		{level: "warn", pretty: true, expected: zerolog.WarnLevel},
		{level: "", expected: zerolog.InfoLevel},
		{level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			err := Setup(tt.level, tt.pretty)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Setup(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := zerolog.GlobalLevel(); got != tt.expected {
				t.Errorf("Setup(%q) level = %v, want %v", tt.level, got, tt.expected)
			}
		})
	}
}
