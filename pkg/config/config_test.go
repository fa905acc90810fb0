package config

import (
	"image/color"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gotsplot/pkg/timeseries"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, "minmax", cfg.Plot.Downsampling)
	assert.Equal(t, 4000, cfg.Plot.PointBudget)
	assert.Equal(t, 8, cfg.Plot.BucketSize)
	assert.Equal(t, 5, cfg.Plot.MaxLevels)
	assert.True(t, cfg.Plot.FollowEdge)
	assert.Equal(t, float64(10), cfg.Plot.ViewWidth)
	assert.Len(t, cfg.Channels, 2)
	assert.Equal(t, 0, cfg.Measurement.AverageSamples)
	assert.Equal(t, time.Second, cfg.Measurement.Window())
	assert.Equal(t, time.Millisecond, cfg.Mock.SampleRate)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	_, err = tmpfile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())
	return tmpfile.Name()
}

func TestLoad_ValidYAML(t *testing.T) {
	name := writeTemp(t, `
serial:
  port: "/dev/ttyACM0"
  baud_rate: 921600

plot:
  downsampling: minmax
  point_budget: 2000
  bucket_size: 16
  max_levels: 3
  follow_edge: false
  view_width: 60
  frame_rate: 20
  link_group: scope
  link_y: true

channels:
  - name: current
    unit: A
    scale: 0.001
    color: "#ff8000"
  - name: voltage
    unit: V
    offset: -1.5

measurement:
  window_seconds: 2.5
  average_samples: 8

mock:
  channels: 3
  sample_rate: 2ms
  gap_every: 500
  period: 1s
`)

	cfg, err := Load(name)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 921600, cfg.Serial.BaudRate)
	assert.Equal(t, 2000, cfg.Plot.PointBudget)
	assert.Equal(t, 16, cfg.Plot.BucketSize)
	assert.Equal(t, 3, cfg.Plot.MaxLevels)
	assert.False(t, cfg.Plot.FollowEdge)
	assert.Equal(t, float64(60), cfg.Plot.ViewWidth)
	assert.Equal(t, 50*time.Millisecond, cfg.Plot.FramePeriod())
	assert.Equal(t, "scope", cfg.Plot.LinkGroup)
	assert.True(t, cfg.Plot.LinkY)

	require.Len(t, cfg.Channels, 2)
	assert.Equal(t, "current", cfg.Channels[0].Name)
	assert.Equal(t, 0.001, cfg.Channels[0].Scale)
	assert.Equal(t, float64(1), cfg.Channels[1].Scale, "missing scale defaults to 1")
	assert.Equal(t, -1.5, cfg.Channels[1].Offset)

	assert.Equal(t, 8, cfg.Measurement.AverageSamples)
	assert.Equal(t, 2500*time.Millisecond, cfg.Measurement.Window())
	assert.Equal(t, 3, cfg.Mock.Channels)
	assert.Equal(t, 2*time.Millisecond, cfg.Mock.SampleRate)
	assert.Equal(t, 500, cfg.Mock.GapEvery)
	assert.Equal(t, time.Second, cfg.Mock.Period)
	assert.Equal(t, float64(1), cfg.Mock.Amplitude) // default
}

func TestLoad_InvalidYAML(t *testing.T) {
	name := writeTemp(t, "invalid: yaml: content: [")

	cfg, err := Load(name)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	name := writeTemp(t, `
serial:
  port: "/dev/ttyACM0"
channels:
  - unit: mV
`)

	cfg, err := Load(name)
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)           // default
	assert.Equal(t, 4000, cfg.Plot.PointBudget)            // default
	assert.Equal(t, time.Millisecond, cfg.Mock.SampleRate) // default
	require.Len(t, cfg.Channels, 1)
	assert.Equal(t, "ch0", cfg.Channels[0].Name)
	assert.Equal(t, float64(1), cfg.Channels[0].Scale)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Plot.ViewWidth = 15

	name := writeTemp(t, "")
	require.NoError(t, cfg.Save(name))

	// Load it back and verify
	loaded, err := Load(name)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, float64(15), loaded.Plot.ViewWidth)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown downsampling", func(c *Config) { c.Plot.Downsampling = "median" }},
		{"zero budget", func(c *Config) { c.Plot.PointBudget = 0 }},
		{"odd bucket", func(c *Config) { c.Plot.BucketSize = 7 }},
		{"small bucket", func(c *Config) { c.Plot.BucketSize = 2 }},
		{"negative levels", func(c *Config) { c.Plot.MaxLevels = -1 }},
		{"zero width", func(c *Config) { c.Plot.ViewWidth = 0 }},
		{"zero frame rate", func(c *Config) { c.Plot.FrameRate = 0 }},
		{"zero window", func(c *Config) { c.Measurement.WindowSeconds = -1 }},
		{"negative averaging", func(c *Config) { c.Measurement.AverageSamples = -1 }},
		{"bad color", func(c *Config) { c.Channels[0].Color = "#12345" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPlotConfig_MemoryOptions(t *testing.T) {
	cfg := Default()
	cfg.Plot.PointBudget = 10
	cfg.Plot.MaxLevels = 1

	opts, err := cfg.Plot.MemoryOptions()
	require.NoError(t, err)

	mem := timeseries.NewMemory[timeseries.Linear, float64]("p", opts...)
	seq := make(timeseries.Samples[timeseries.Linear, float64], 1000)
	for i := range seq {
		seq[i] = timeseries.Sample[timeseries.Linear, float64]{X: timeseries.Linear(i), Y: float64(i), Valid: true}
	}
	mem.Update("a", seq)
	line, ok := mem.Line("a")
	require.True(t, ok)
	assert.Equal(t, 2, line.Levels())

	cfg.Plot.Downsampling = "bogus"
	_, err = cfg.Plot.MemoryOptions()
	assert.Error(t, err)
}

func TestChannelConfig_ParseColor(t *testing.T) {
	c, err := ChannelConfig{Color: "#ff8000"}.ParseColor()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, G: 128, B: 0, A: 255}, c)

	c, err = ChannelConfig{}.ParseColor()
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = ChannelConfig{Color: "zzzzzz"}.ParseColor()
	assert.Error(t, err)
}
