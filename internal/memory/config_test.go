package memory

import (
	"math"
	"runtime/debug"
	"testing"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1073741824", 1 << 30, false},
		{"4000M", 4000 << 20, false},
		{"2G", 2 << 30, false},
		{"512MiB", 512 << 20, false},
		{"1GB", 1_000_000_000, false},
		{" 64k ", 64 << 10, false},
		{"lots", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLimit(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLimit(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLimit(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestConfigureFromEnv(t *testing.T) {
	original := debug.SetMemoryLimit(-1)
	defer debug.SetMemoryLimit(original)

	tests := []struct {
		name           string
		env            map[string]string
		wantConfigured bool
		wantSource     string
		wantLimit      int64
		wantRatio      float64
	}{
		{
			name:       "nothing set",
			env:        map[string]string{},
			wantSource: "none",
		},
		{
			name:           "memory limit with default ratio",
			env:            map[string]string{"MEMORY_LIMIT": "1000000000"},
			wantConfigured: true,
			wantSource:     "MEMORY_LIMIT",
			wantLimit:      850000000,
			wantRatio:      0.85,
		},
		{
			name:           "humanized limit and ratio",
			env:            map[string]string{"MEMORY_LIMIT": "4000M", "MEMORY_RATIO": "0.5"},
			wantConfigured: true,
			wantSource:     "MEMORY_LIMIT",
			wantLimit:      2000 << 20,
			wantRatio:      0.5,
		},
		{
			name:           "ratio out of range falls back",
			env:            map[string]string{"MEMORY_LIMIT": "1000", "MEMORY_RATIO": "1.5"},
			wantConfigured: true,
			wantSource:     "MEMORY_LIMIT",
			wantLimit:      850,
			wantRatio:      0.85,
		},
		{
			name:       "unparseable limit",
			env:        map[string]string{"MEMORY_LIMIT": "plenty"},
			wantSource: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debug.SetMemoryLimit(math.MaxInt64)
			got := ConfigureFromEnv(envMap(tt.env))

			if got.Configured != tt.wantConfigured || got.Source != tt.wantSource {
				t.Fatalf("ConfigureFromEnv() = %+v", got)
			}
			if got.GoMemLimit != tt.wantLimit {
				t.Errorf("GoMemLimit = %d, want %d", got.GoMemLimit, tt.wantLimit)
			}
			if got.Ratio != tt.wantRatio {
				t.Errorf("Ratio = %v, want %v", got.Ratio, tt.wantRatio)
			}
			if tt.wantConfigured {
				if applied := debug.SetMemoryLimit(-1); applied != tt.wantLimit {
					t.Errorf("runtime limit = %d, want %d", applied, tt.wantLimit)
				}
			}
		})
	}
}

func TestConfigureFromEnvGOMEMLIMITWins(t *testing.T) {
	original := debug.SetMemoryLimit(-1)
	defer debug.SetMemoryLimit(original)

	debug.SetMemoryLimit(500 << 20)
	got := ConfigureFromEnv(envMap(map[string]string{"GOMEMLIMIT": "500MiB", "MEMORY_LIMIT": "1GiB"}))

	if got.Source != "GOMEMLIMIT" || got.GoMemLimit != 500<<20 {
		t.Errorf("ConfigureFromEnv() = %+v", got)
	}
}
