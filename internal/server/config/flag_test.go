package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	// Test cases
	tests := []struct {
		expected    *Config
		initial     *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-d", "db", "-f", "4", "-t", "32", "-w", "5",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddr:     "127.0.0.1:9090",
				DatabaseDSN:      "db",
				TitleIndexFanout: 4,
				ShareTokenBytes:  32,
				ShutdownTimeout:  5 * time.Second,
			}},
		{name: "Test2 partial flags keep prior values", args: []string{"cmd",
			"-a", "127.0.0.1:9090",
		}, expectPanic: false,
			initial: &Config{
				DatabaseDSN:      "keep-dsn",
				TitleIndexFanout: 8,
				ShareTokenBytes:  16,
				ShutdownTimeout:  10 * time.Second,
			},
			expected: &Config{
				EndpointAddr:     "127.0.0.1:9090",
				DatabaseDSN:      "keep-dsn",
				TitleIndexFanout: 8,
				ShareTokenBytes:  16,
				ShutdownTimeout:  10 * time.Second,
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if tt.initial != nil {
				*config = *tt.initial
			}

			if !tt.expectPanic {

				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
