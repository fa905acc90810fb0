//go:build tinygo

//go:generate tinygo flash -target=xiao

// Firmware for a XIAO board that streams averaged ADC readings in the
// tsplot wire format: "unix_micros,mv0,mv1,...\n". A saturated channel
// is sent as an empty field.
//
// Commands, one per line:
//
//	a<N>  average N readings per output sample
//	p     pause output
//	g     resume output
package main

import (
	"machine"
	"strconv"
	"time"
)

type channel struct {
	adc       machine.ADC
	sum       uint32
	count     int
	saturated bool
}

var (
	uart     = machine.UART0
	channels []channel

	average = defaultAverage
	paused  bool

	lastRead time.Time

	line    [16]byte
	linePos int
)

func main() {
	cfg := machine.ADCConfig{
		Reference:  adcReferenceMV,
		Resolution: adcResolution,
	}
	for _, pin := range adcPins {
		pin.Configure(machine.PinConfig{Mode: machine.PinInput})
		adc := machine.ADC{Pin: pin}
		adc.Configure(cfg)
		channels = append(channels, channel{adc: adc})
	}

	uart.Configure(machine.UARTConfig{BaudRate: uartBaudRate})
	lastRead = time.Now()

	for {
		processSerial()

		now := time.Now()
		if now.Sub(lastRead) >= sampleInterval {
			readChannels()
			lastRead = now
		}

		if channels[0].count >= average {
			if !paused {
				writeSample(now)
			}
			resetChannels()
		}

		time.Sleep(100 * time.Microsecond)
	}
}

func readChannels() {
	for i := range channels {
		ch := &channels[i]
		v := ch.adc.Get()
		if v >= saturated {
			ch.saturated = true
		}
		ch.sum += uint32(v)
		ch.count++
	}
}

func resetChannels() {
	for i := range channels {
		channels[i].sum = 0
		channels[i].count = 0
		channels[i].saturated = false
	}
}

// writeSample prints one line. Values are millivolts.
func writeSample(now time.Time) {
	var buf [64]byte
	out := strconv.AppendInt(buf[:0], now.UnixMicro(), 10)
	for i := range channels {
		ch := &channels[i]
		out = append(out, ',')
		if ch.saturated || ch.count == 0 {
			continue
		}
		raw := ch.sum / uint32(ch.count)
		mv := raw * adcReferenceMV / 0xffff
		out = strconv.AppendUint(out, uint64(mv), 10)
	}
	out = append(out, '\n')
	uart.Write(out)
}

func processSerial() {
	for uart.Buffered() > 0 {
		b, err := uart.ReadByte()
		if err != nil {
			break
		}

		switch {
		case b == '\n' || b == '\r':
			if linePos > 0 {
				handleCommand(string(line[:linePos]))
			}
			linePos = 0
		case b == ' ' || b == '\t':
		case linePos < len(line):
			line[linePos] = b
			linePos++
		default:
			// Overlong line.
			linePos = 0
		}
	}
}

func handleCommand(cmd string) {
	switch cmd[0] {
	case 'p':
		paused = true
	case 'g':
		paused = false
	case 'a':
		n, err := strconv.Atoi(cmd[1:])
		if err != nil || n < 1 || n > maxAverage {
			return
		}
		average = n
		resetChannels()
	}
}
