//go:build tinygo

package main

import (
	"machine"
	"time"
)

const (
	sampleInterval = time.Millisecond // ADC read interval, same for every channel
	defaultAverage = 10               // Readings averaged into one output sample
	maxAverage     = 1000

	adcReferenceMV = 3300 // Reference voltage in millivolts (3.3V)
	adcResolution  = 12   // ADC resolution in bits

	// A reading at or above this raw value is reported as a gap.
	saturated = 0xfff0

	// Format "unix_micros,mv0,mv1,mv2,mv3\n" is ~40 bytes per line.
	// 100 lines/sec at 10x averaging needs 4,000 bytes/sec; 115200 baud
	// carries 11,520.
	uartBaudRate = 115200
)

// adcPins lists the sampled inputs in channel order.
var adcPins = []machine.Pin{machine.A0, machine.A1, machine.A2, machine.A3}
