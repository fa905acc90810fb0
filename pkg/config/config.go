package config

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itohio/gotsplot/pkg/timeseries"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Plot        PlotConfig        `yaml:"plot"`
	Channels    []ChannelConfig   `yaml:"channels"`
	Measurement MeasurementConfig `yaml:"measurement"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// PlotConfig contains the cache and viewport parameters.
type PlotConfig struct {
	Downsampling string  `yaml:"downsampling"` // none, minmax or mean
	PointBudget  int     `yaml:"point_budget"`
	BucketSize   int     `yaml:"bucket_size"`
	MaxLevels    int     `yaml:"max_levels"`
	FollowEdge   bool    `yaml:"follow_edge"`
	ViewWidth    float64 `yaml:"view_width"` // Seconds shown while following the edge
	FrameRate    int     `yaml:"frame_rate"` // Frames per second
	LinkGroup    string  `yaml:"link_group"` // Empty draws all channels in one plot
	LinkY        bool    `yaml:"link_y"`
}

// ChannelConfig describes one input channel.
type ChannelConfig struct {
	Name   string  `yaml:"name"`
	Unit   string  `yaml:"unit"`
	Scale  float64 `yaml:"scale"`  // value = raw*scale + offset
	Offset float64 `yaml:"offset"`
	Color  string  `yaml:"color"`  // #rrggbb, empty picks from the palette
}

// MeasurementConfig contains measurement parameters.
type MeasurementConfig struct {
	WindowSeconds  float64 `yaml:"window_seconds"`  // Window of the live readout statistics
	AverageSamples int     `yaml:"average_samples"` // Number of samples to average (0 = disabled, default)
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	Channels   int           `yaml:"channels"`
	SampleRate time.Duration `yaml:"sample_rate"` // Sample period
	NoiseLevel float64       `yaml:"noise_level"`
	GapEvery   int           `yaml:"gap_every"` // Emit a gap every N samples (0 = never)
	Amplitude  float64       `yaml:"amplitude"`
	Period     time.Duration `yaml:"period"` // Period of the simulated signal
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			BaudRate: 115200,
		},
		Plot: PlotConfig{
			Downsampling: timeseries.MinMax.String(),
			PointBudget:  timeseries.DefaultPointBudget,
			BucketSize:   timeseries.DefaultBucketSize,
			MaxLevels:    timeseries.DefaultMaxLevels,
			FollowEdge:   true,
			ViewWidth:    timeseries.DefaultViewWidth,
			FrameRate:    30,
		},
		Channels: []ChannelConfig{
			{Name: "ch0", Unit: "V", Scale: 1},
			{Name: "ch1", Unit: "V", Scale: 1},
		},
		Measurement: MeasurementConfig{
			WindowSeconds:  1,
			AverageSamples: 0, // No averaging by default
		},
		Mock: MockConfig{
			Channels:   2,
			SampleRate: time.Millisecond, // 1000 samples per second
			NoiseLevel: 0.01,
			GapEvery:   0,
			Amplitude:  1.0,
			Period:     5 * time.Second,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Plot.Downsampling == "" {
		c.Plot.Downsampling = def.Plot.Downsampling
	}
	if c.Plot.PointBudget == 0 {
		c.Plot.PointBudget = def.Plot.PointBudget
	}
	if c.Plot.BucketSize == 0 {
		c.Plot.BucketSize = def.Plot.BucketSize
	}
	if c.Plot.ViewWidth == 0 {
		c.Plot.ViewWidth = def.Plot.ViewWidth
	}
	if c.Plot.FrameRate == 0 {
		c.Plot.FrameRate = def.Plot.FrameRate
	}

	if c.Measurement.WindowSeconds == 0 {
		c.Measurement.WindowSeconds = def.Measurement.WindowSeconds
	}

	if len(c.Channels) == 0 {
		c.Channels = def.Channels
	}
	for i := range c.Channels {
		if c.Channels[i].Name == "" {
			c.Channels[i].Name = "ch" + strconv.Itoa(i)
		}
		if c.Channels[i].Scale == 0 {
			c.Channels[i].Scale = 1
		}
	}

	if c.Mock.Channels == 0 {
		c.Mock.Channels = def.Mock.Channels
	}
	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
	if c.Mock.Amplitude == 0 {
		c.Mock.Amplitude = def.Mock.Amplitude
	}
	if c.Mock.Period == 0 {
		c.Mock.Period = def.Mock.Period
	}
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if _, err := timeseries.ParseMethod(c.Plot.Downsampling); err != nil {
		return fmt.Errorf("plot.downsampling: %w", err)
	}
	if c.Plot.PointBudget < 1 {
		return fmt.Errorf("plot.point_budget must be >= 1")
	}
	if c.Plot.BucketSize < 4 || c.Plot.BucketSize%2 != 0 {
		return fmt.Errorf("plot.bucket_size must be even and >= 4")
	}
	if c.Plot.MaxLevels < 0 {
		return fmt.Errorf("plot.max_levels must be >= 0")
	}
	if c.Plot.ViewWidth <= 0 {
		return fmt.Errorf("plot.view_width must be > 0")
	}
	if c.Plot.FrameRate < 1 {
		return fmt.Errorf("plot.frame_rate must be >= 1")
	}
	if c.Measurement.WindowSeconds <= 0 {
		return fmt.Errorf("measurement.window_seconds must be > 0")
	}
	if c.Measurement.AverageSamples < 0 {
		return fmt.Errorf("measurement.average_samples must be >= 0")
	}
	for i, ch := range c.Channels {
		if _, err := ch.ParseColor(); err != nil {
			return fmt.Errorf("channels[%d].color: %w", i, err)
		}
	}
	return nil
}

// MemoryOptions translates the plot section into cache options.
func (p PlotConfig) MemoryOptions() ([]timeseries.Option, error) {
	method, err := timeseries.ParseMethod(p.Downsampling)
	if err != nil {
		return nil, fmt.Errorf("plot.downsampling: %w", err)
	}
	return []timeseries.Option{
		timeseries.WithMethod(method),
		timeseries.WithPointBudget(p.PointBudget),
		timeseries.WithBucketSize(p.BucketSize),
		timeseries.WithMaxLevels(p.MaxLevels),
	}, nil
}

// Window returns the readout statistics window.
func (m MeasurementConfig) Window() time.Duration {
	return time.Duration(m.WindowSeconds * float64(time.Second))
}

// FramePeriod returns the time between two frames.
func (p PlotConfig) FramePeriod() time.Duration {
	if p.FrameRate < 1 {
		return time.Second / 30
	}
	return time.Second / time.Duration(p.FrameRate)
}

// ParseColor parses the #rrggbb channel color. An empty color yields nil.
func (ch ChannelConfig) ParseColor() (color.Color, error) {
	s := strings.TrimPrefix(strings.TrimSpace(ch.Color), "#")
	if s == "" {
		return nil, nil
	}
	if len(s) != 6 {
		return nil, fmt.Errorf("invalid color %q", ch.Color)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", ch.Color, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
