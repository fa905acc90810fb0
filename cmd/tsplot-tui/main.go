// Command tsplot-tui plots a live or recorded time series in the terminal.
//
// Samples come from a file (-in), from stdin when it is piped, from the
// mocked device (-mock) or from the configured serial port.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tui "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"

	"github.com/itohio/gotsplot/pkg/config"
	"github.com/itohio/gotsplot/pkg/plot"
	"github.com/itohio/gotsplot/pkg/session"
	"github.com/itohio/gotsplot/pkg/source"
	"github.com/itohio/gotsplot/pkg/termscope"
)

var (
	portFlag      = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
	configFlag    = flag.String("config", "config.yaml", "Configuration file path")
	mockFlag      = flag.Bool("mock", false, "Use mocked device instead of serial port")
	inputFlag     = flag.String("in", "", "Replay a recorded file instead of reading a device")
	speedFlag     = flag.Float64("speed", 1, "Replay speed factor for -in and stdin (0 = as fast as possible)")
	averageFlag   = flag.Int("average-samples", -1, "Number of samples to average (0 = disabled, overrides config)")
	altScreenFlag = flag.Bool("alt-screen", true, "Use the terminal's alternate screen")
	logFlag       = flag.String("log", "", "Write logs to this file instead of discarding them")
)

func main() {
	flag.Parse()

	if *logFlag != "" {
		f, err := tui.LogToFile(*logFlag, "tsplot")
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *averageFlag >= 0 {
		cfg.Measurement.AverageSamples = *averageFlag
	}
	// The terminal shows a single plot with every channel.
	cfg.Plot.LinkGroup = ""

	sess, err := session.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create session: %v\n", err)
		os.Exit(1)
	}

	dev, name, err := openDevice(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := sess.Start(dev); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n", name, err)
		os.Exit(1)
	}
	defer sess.Stop()
	log.Printf("Connected to %s", name)

	m := termscope.New(termscope.Options{
		Title:     "tsplot  " + name,
		FrameRate: cfg.Plot.FrameRate,
		Frame: func(s plot.Surface) {
			sess.Show(0, s)
		},
		Readout: sess.Readout,
		Clear:   sess.Clear,
	})

	opts := []tui.ProgramOption{tui.WithInputTTY()}
	if *altScreenFlag {
		opts = append(opts, tui.WithAltScreen())
	}
	if _, err := tui.NewProgram(m, opts...).Run(); err != nil {
		log.Printf("program: %v", err)
		fmt.Fprintln(os.Stderr, err)
	}
}

// openDevice picks the input: a file, piped stdin, the mock or the serial port.
func openDevice(cfg *config.Config) (source.Device, string, error) {
	switch {
	case *inputFlag != "":
		f, err := os.Open(*inputFlag)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s: %w", *inputFlag, err)
		}
		return source.NewStream(f, *speedFlag, source.DefaultBufferSize), *inputFlag, nil
	case !term.IsTerminal(os.Stdin.Fd()):
		return source.NewStream(os.Stdin, *speedFlag, source.DefaultBufferSize), "stdin", nil
	case *mockFlag:
		return source.NewMock(&cfg.Mock), "mocked device", nil
	default:
		return source.NewSerial(cfg.Serial.Port, cfg.Serial.BaudRate, source.DefaultBufferSize), cfg.Serial.Port, nil
	}
}
