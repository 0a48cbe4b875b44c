package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/identilink/identilink/internal/logger"
)

func TestInit(t *testing.T) {
	testCases := []struct {
		name          string
		cfg           logger.Log
		expectedError error
	}{
		{
			name: "console enabled log level info",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true},
			},
		},
		{
			name: "console writer enabled",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true, UseConsoleWriter: true},
			},
		},
		{
			name: "trace level enables stack marshaling",
			cfg: logger.Log{
				LogLevel:    "trace",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true},
			},
		},
		{
			name: "missing service name",
			cfg: logger.Log{
				LogLevel: "info",
				AppName:  "test",
			},
			expectedError: logger.ErrServiceNameIsEmpty,
		},
		{
			name: "missing app name",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
			},
			expectedError: logger.ErrAppNameIsEmpty,
		},
		{
			name: "unsupported log level",
			cfg: logger.Log{
				LogLevel:    "noisy",
				ServiceName: "test",
				AppName:     "test",
			},
			expectedError: nil, // wrapped parse error, checked separately
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := logger.Init(tc.cfg)

			switch {
			case tc.expectedError != nil:
				require.ErrorIs(t, err, tc.expectedError)
			case tc.cfg.LogLevel == "noisy":
				require.Error(t, err)
				assert.Contains(t, err.Error(), "not supported")
			default:
				require.NoError(t, err)
			}
		})
	}
}
