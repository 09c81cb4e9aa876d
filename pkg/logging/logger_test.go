package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/releasetools/fixvet/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	logging.SetDefault(logger)

	logging.Debug().Msg("debug message")
	logging.Info().Msg("info message")
	logging.Warn().Msg("warning message")
	logging.Error().Msg("error message")

	output := buf.String()
	if !strings.Contains(output, "info message") {
		t.Errorf("Expected info message in output, got: %s", output)
	}
	if !strings.Contains(output, "warning message") {
		t.Errorf("Expected warning message in output, got: %s", output)
	}
}

func TestCaptureLoggingForTest(t *testing.T) {
	testLogger := logging.CaptureLoggingForTest(t)

	logging.Info().Str("issue", "HADOOP-1234").Msg("found issue")

	testLogger.AssertContains(t, "HADOOP-1234")
	testLogger.AssertContains(t, "found issue")
}

func TestConfiguration(t *testing.T) {
	configs := []struct {
		name   string
		config *logging.Config
		check  func(t *testing.T, output string)
	}{
		{
			name: "debug level",
			config: &logging.Config{
				Level:  "debug",
				Format: "json",
			},
			check: func(t *testing.T, output string) {
				if !strings.Contains(output, `"level":"debug"`) {
					t.Errorf("Expected debug level in output")
				}
			},
		},
		{
			name: "warn level filters info",
			config: &logging.Config{
				Level:  "warn",
				Format: "json",
			},
			check: func(t *testing.T, output string) {
				if strings.Contains(output, "info event") {
					t.Errorf("Info message should be filtered at warn level")
				}
			},
		},
		{
			name: "invalid level defaults to info",
			config: &logging.Config{
				Level:  "nonsense",
				Format: "json",
			},
			check: func(t *testing.T, output string) {
				if !strings.Contains(output, "info event") {
					t.Errorf("Expected info message with default level")
				}
			},
		},
	}

	for _, tc := range configs {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.NewLoggerFromConfig(tc.config)
			logger = logger.Output(buf)

			logger.Debug().Msg("debug event")
			logger.Info().Msg("info event")
			logger.Warn().Msg("warn event")

			tc.check(t, buf.String())
		})
	}
}
