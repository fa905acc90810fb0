package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/gotsplot/pkg/config"
	"github.com/itohio/gotsplot/pkg/meter"
	"github.com/itohio/gotsplot/pkg/scope"
	"github.com/itohio/gotsplot/pkg/session"
	"github.com/itohio/gotsplot/pkg/source"
)

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use mocked device instead of serial port")
		inputFlag          = flag.String("in", "", "Replay a recorded file instead of reading a device")
		speedFlag          = flag.Float64("speed", 1, "Replay speed factor for -in (0 = as fast as possible)")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of samples to average (0 = disabled, overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *averageSamplesFlag >= 0 {
		cfg.Measurement.AverageSamples = *averageSamplesFlag
	}

	sess, err := session.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	application := app.NewWithID("com.itohio.gotsplot")

	window := application.NewWindow("Time Series Plot")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		session:    sess,
		window:     window,
		useMock:    *mockFlag,
		input:      *inputFlag,
		speed:      *speedFlag,
	}

	toolbar := createToolbar(state)

	plots := make([]fyne.CanvasObject, sess.Plots())
	for i := range plots {
		title := ""
		if sess.Plots() > 1 {
			title = sess.Line(i).Legend()
		}
		sc := scope.New(title)
		state.scopes = append(state.scopes, sc)
		plots[i] = sc
	}
	state.status = widget.NewLabel("Disconnected")

	// The meter throttles callbacks to the frame period.
	sess.Meter().OnUpdate(func(meter.Stats) {
		status := sess.Status()
		fyne.Do(func() {
			state.status.SetText(status)
		})
	})

	content := container.NewBorder(
		toolbar,
		state.status,
		nil,
		nil,
		container.NewGridWithRows(len(plots), plots...),
	)
	window.SetContent(content)

	stop := make(chan struct{})
	go runFrames(state, stop)
	window.SetOnClosed(func() {
		close(stop)
		sess.Stop()
	})

	if state.input != "" || state.useMock {
		handleConnect(state)
	}
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg        *config.Config
	configPath string
	session    *session.Session
	scopes     []*scope.Scope
	window     fyne.Window
	connectBtn *widget.Button
	status     *widget.Label
	useMock    bool
	input      string
	speed      float64
}

// runFrames shows one frame per frame period on the Fyne main goroutine
// until stop is closed.
func runFrames(state *appState, stop <-chan struct{}) {
	ticker := time.NewTicker(state.cfg.Plot.FramePeriod())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			fyne.DoAndWait(func() {
				showFrame(state)
			})
		}
	}
}

func showFrame(state *appState) {
	for i, sc := range state.scopes {
		for _, id := range lineIDs(state, i) {
			sc.SetReadout(id, state.session.Readout(id))
		}
		state.session.Show(i, sc)
	}
}

func lineIDs(state *appState, plot int) []string {
	if state.session.Plots() > 1 {
		return []string{state.session.Line(plot).ID}
	}
	ids := make([]string, 0, len(state.cfg.Channels))
	for ch := range max(len(state.cfg.Channels), state.session.Buffer().Channels()) {
		ids = append(ids, state.session.Line(ch).ID)
	}
	return ids
}

// createToolbar creates the application toolbar with Connect, Settings,
// Follow and Clear buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	followBtn := widget.NewButtonWithIcon("", theme.MediaFastForwardIcon(), func() {
		for _, sc := range state.scopes {
			sc.ResetView()
		}
	})

	clearBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		state.session.Clear()
		for _, sc := range state.scopes {
			sc.ResetView()
		}
	})

	return container.NewBorder(
		nil, // top
		nil, // bottom
		container.NewHBox(connectBtn, settingsBtn), // left
		container.NewHBox(followBtn, clearBtn),     // right
		nil, // center (spacer)
	)
}

// openDevice creates the configured device.
func openDevice(state *appState) (source.Device, string, error) {
	switch {
	case state.input != "":
		f, err := os.Open(state.input)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s: %w", state.input, err)
		}
		return source.NewStream(f, state.speed, source.DefaultBufferSize), state.input, nil
	case state.useMock:
		return source.NewMock(&state.cfg.Mock), "mocked device", nil
	default:
		return source.NewSerial(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, source.DefaultBufferSize), state.cfg.Serial.Port, nil
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.session.Running() {
		state.session.Stop()
		state.status.SetText("Disconnected")
		log.Println("Disconnected")
		return
	}

	device, name, err := openDevice(state)
	if err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	if err := state.session.Start(device); err != nil {
		dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", name, err), state.window)
		return
	}
	state.status.SetText("Connected to " + name)
	log.Printf("Connected to %s", name)
}
