package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/gotsplot/pkg/source"
	"github.com/itohio/gotsplot/pkg/timeseries"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createPlotTab(state),
		createChannelsTab(state),
		createMeasurementTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// saveConfig writes the configuration and reports failures in a dialog.
func saveConfig(state *appState, restart bool) {
	if err := state.cfg.Validate(); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
		return
	}
	if restart {
		dialog.ShowInformation("Settings", "Saved. The change applies after a restart.", state.window)
	}
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := source.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			if portSelect.Selected == "" {
				return
			}
			selectedPort := portMap[portSelect.Selected]
			if selectedPort == "" {
				selectedPort = portSelect.Selected
			}

			portChanged := state.cfg.Serial.Port != selectedPort
			wasConnected := state.session.Running() && !state.useMock && state.input == ""

			state.cfg.Serial.Port = selectedPort
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				state.cfg.Serial.BaudRate = baud
			}
			saveConfig(state, false)

			// Reconnect on the new port.
			if portChanged && wasConnected {
				state.session.Stop()
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createPlotTab creates the Plot configuration tab.
func createPlotTab(state *appState) *container.TabItem {
	methodSelect := widget.NewSelect([]string{
		timeseries.None.String(),
		timeseries.MinMax.String(),
		timeseries.Mean.String(),
	}, nil)
	methodSelect.SetSelected(state.cfg.Plot.Downsampling)

	budgetEntry := widget.NewEntry()
	budgetEntry.SetText(strconv.Itoa(state.cfg.Plot.PointBudget))

	bucketEntry := widget.NewEntry()
	bucketEntry.SetText(strconv.Itoa(state.cfg.Plot.BucketSize))

	levelsEntry := widget.NewEntry()
	levelsEntry.SetText(strconv.Itoa(state.cfg.Plot.MaxLevels))

	followCheck := widget.NewCheck("", nil)
	followCheck.SetChecked(state.cfg.Plot.FollowEdge)

	widthEntry := widget.NewEntry()
	widthEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Plot.ViewWidth))

	fpsEntry := widget.NewEntry()
	fpsEntry.SetText(strconv.Itoa(state.cfg.Plot.FrameRate))

	groupEntry := widget.NewEntry()
	groupEntry.SetText(state.cfg.Plot.LinkGroup)

	linkYCheck := widget.NewCheck("", nil)
	linkYCheck.SetChecked(state.cfg.Plot.LinkY)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Downsampling", Widget: methodSelect},
			{Text: "Point Budget", Widget: budgetEntry},
			{Text: "Bucket Size", Widget: bucketEntry},
			{Text: "Max Levels", Widget: levelsEntry},
			{Text: "Follow Edge", Widget: followCheck},
			{Text: "View Width (s)", Widget: widthEntry},
			{Text: "Frame Rate (fps)", Widget: fpsEntry},
			{Text: "Link Group (empty = one plot)", Widget: groupEntry},
			{Text: "Link Y", Widget: linkYCheck},
		},
		OnSubmit: func() {
			p := &state.cfg.Plot
			if methodSelect.Selected != "" {
				p.Downsampling = methodSelect.Selected
			}
			if v, err := strconv.Atoi(budgetEntry.Text); err == nil {
				p.PointBudget = v
			}
			if v, err := strconv.Atoi(bucketEntry.Text); err == nil {
				p.BucketSize = v
			}
			if v, err := strconv.Atoi(levelsEntry.Text); err == nil {
				p.MaxLevels = v
			}
			p.FollowEdge = followCheck.Checked
			if v, err := strconv.ParseFloat(widthEntry.Text, 64); err == nil {
				p.ViewWidth = v
			}
			if v, err := strconv.Atoi(fpsEntry.Text); err == nil {
				p.FrameRate = v
			}
			p.LinkGroup = groupEntry.Text
			p.LinkY = linkYCheck.Checked
			saveConfig(state, true)
		},
	}

	return container.NewTabItem("Plot", form)
}

// createChannelsTab creates one form row group per configured channel.
func createChannelsTab(state *appState) *container.TabItem {
	type row struct {
		name, unit, scale, offset, color *widget.Entry
	}
	rows := make([]row, len(state.cfg.Channels))
	var items []*widget.FormItem
	for i, ch := range state.cfg.Channels {
		r := row{
			name:   widget.NewEntry(),
			unit:   widget.NewEntry(),
			scale:  widget.NewEntry(),
			offset: widget.NewEntry(),
			color:  widget.NewEntry(),
		}
		r.name.SetText(ch.Name)
		r.unit.SetText(ch.Unit)
		r.scale.SetText(strconv.FormatFloat(ch.Scale, 'g', -1, 64))
		r.offset.SetText(strconv.FormatFloat(ch.Offset, 'g', -1, 64))
		r.color.SetText(ch.Color)
		r.color.SetPlaceHolder("#rrggbb")
		rows[i] = r

		items = append(items,
			&widget.FormItem{Text: fmt.Sprintf("Channel %d", i), Widget: r.name},
			&widget.FormItem{Text: "Unit", Widget: r.unit},
			&widget.FormItem{Text: "Scale", Widget: r.scale},
			&widget.FormItem{Text: "Offset", Widget: r.offset},
			&widget.FormItem{Text: "Color", Widget: r.color},
		)
	}

	form := &widget.Form{
		Items: items,
		OnSubmit: func() {
			for i, r := range rows {
				ch := &state.cfg.Channels[i]
				ch.Name = r.name.Text
				ch.Unit = r.unit.Text
				if v, err := strconv.ParseFloat(r.scale.Text, 64); err == nil {
					ch.Scale = v
				}
				if v, err := strconv.ParseFloat(r.offset.Text, 64); err == nil {
					ch.Offset = v
				}
				ch.Color = r.color.Text
			}
			saveConfig(state, true)
		},
	}

	return container.NewTabItem("Channels", container.NewVScroll(form))
}

// createMeasurementTab creates the Measurement configuration tab.
func createMeasurementTab(state *appState) *container.TabItem {
	windowSecondsEntry := widget.NewEntry()
	windowSecondsEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Measurement.WindowSeconds))

	averageSamplesEntry := widget.NewEntry()
	averageSamplesEntry.SetText(fmt.Sprintf("%d", state.cfg.Measurement.AverageSamples))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Readout Window (seconds)", Widget: windowSecondsEntry},
			{Text: "Average Samples (0=disabled)", Widget: averageSamplesEntry},
		},
		OnSubmit: func() {
			if ws, err := strconv.ParseFloat(windowSecondsEntry.Text, 64); err == nil {
				state.cfg.Measurement.WindowSeconds = ws
			}
			if avg, err := strconv.Atoi(averageSamplesEntry.Text); err == nil {
				state.cfg.Measurement.AverageSamples = avg
			}
			saveConfig(state, true)
		},
	}

	return container.NewTabItem("Measurement", form)
}

// createMockTab creates the Mock device configuration tab.
func createMockTab(state *appState) *container.TabItem {
	channelsEntry := widget.NewEntry()
	channelsEntry.SetText(strconv.Itoa(state.cfg.Mock.Channels))

	sampleRateEntry := widget.NewEntry()
	sampleRateEntry.SetText(state.cfg.Mock.SampleRate.String())

	noiseLevelEntry := widget.NewEntry()
	noiseLevelEntry.SetText(fmt.Sprintf("%.6f", state.cfg.Mock.NoiseLevel))

	gapEveryEntry := widget.NewEntry()
	gapEveryEntry.SetText(strconv.Itoa(state.cfg.Mock.GapEvery))

	amplitudeEntry := widget.NewEntry()
	amplitudeEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.Amplitude))

	periodEntry := widget.NewEntry()
	periodEntry.SetText(state.cfg.Mock.Period.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Channels", Widget: channelsEntry},
			{Text: "Sample Rate", Widget: sampleRateEntry},
			{Text: "Noise Level", Widget: noiseLevelEntry},
			{Text: "Gap Every (0=never)", Widget: gapEveryEntry},
			{Text: "Amplitude", Widget: amplitudeEntry},
			{Text: "Period", Widget: periodEntry},
		},
		OnSubmit: func() {
			if n, err := strconv.Atoi(channelsEntry.Text); err == nil && n > 0 {
				state.cfg.Mock.Channels = n
			}
			if sr, err := time.ParseDuration(sampleRateEntry.Text); err == nil {
				state.cfg.Mock.SampleRate = sr
			}
			if nl, err := strconv.ParseFloat(noiseLevelEntry.Text, 64); err == nil {
				state.cfg.Mock.NoiseLevel = nl
			}
			if g, err := strconv.Atoi(gapEveryEntry.Text); err == nil && g >= 0 {
				state.cfg.Mock.GapEvery = g
			}
			if a, err := strconv.ParseFloat(amplitudeEntry.Text, 64); err == nil {
				state.cfg.Mock.Amplitude = a
			}
			if p, err := time.ParseDuration(periodEntry.Text); err == nil {
				state.cfg.Mock.Period = p
			}
			saveConfig(state, false)
		},
	}

	return container.NewTabItem("Mock", form)
}
