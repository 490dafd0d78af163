// Package sn3193 provides a TinyGo-friendly driver for the SN3193 3-channel
// LED driver.
//
// The chip is write-only from the driver's point of view. Settings are staged
// into shadow registers and only take effect after a write to one of two
// update registers:
//
//	PWM levels, channel enables  -> data update (0x07)
//	breathing segment timings    -> time update (0x1C)
//
// Mode and current writes take effect immediately.
//
// Typical use:
//
//	d := sn3193.New(i2c, nil)
//	err := d.Configure()                  // reset, PWM mode, 17.5 mA, all channels on
//	err = d.SetPWMLevels(255, 128, 0)
//
// Every register write is preceded by a 1 ms settle delay. Each operation
// stops at the first failing write and returns a *BusError; there is no
// retry and no rollback. A Device is not safe for concurrent use.
package sn3193

import (
	"time"

	"tinygo.org/x/drivers"
)

// DelayFunc blocks the caller for ms milliseconds.
type DelayFunc func(ms uint32)

func sleepMs(ms uint32) { time.Sleep(time.Duration(ms) * time.Millisecond) }

// Device wraps an I2C connection to an SN3193.
type Device struct {
	bus   drivers.I2C
	addr  uint16
	delay DelayFunc

	// Fixed buffer to avoid per-call heap allocations.
	w [2]byte
}

// New creates a Device at AddressDefault. A nil delay uses time.Sleep.
// This function does not touch the device.
func New(bus drivers.I2C, delay DelayFunc) *Device {
	return NewWithAddress(bus, delay, AddressDefault)
}

// NewWithAddress creates a Device at addr. The address comes from board
// strapping (see ValidAddress) and is not checked.
func NewWithAddress(bus drivers.I2C, delay DelayFunc, addr uint16) *Device {
	if delay == nil {
		delay = sleepMs
	}
	return &Device{bus: bus, addr: addr, delay: delay}
}

func (d *Device) Address() uint16 { return d.addr }

// Configure runs the power-up sequence: reset, leave software shutdown with
// channels enabled, PWM mode, 17.5 mA and all three channels on. Until it
// has run, the chip accepts writes but keeps its outputs off.
func (d *Device) Configure() error {
	d.delay(powerUpDelayMs)
	if err := d.Reset(); err != nil {
		return err
	}
	d.delay(powerUpDelayMs)
	if err := d.writeReg(regShutdown, shutdownChannelEnable|softwareNormal); err != nil {
		return err
	}
	if err := d.SetMode(ModePWM); err != nil {
		return err
	}
	if err := d.SetCurrent(Current17p5mA); err != nil {
		return err
	}
	return d.EnableChannels(true, true, true)
}

// Reset writes the software reset register. All registers return to their
// power-on values, including software shutdown.
func (d *Device) Reset() error {
	d.w[0] = regReset
	if err := d.bus.Tx(d.addr, d.w[:1], nil); err != nil {
		return &BusError{Reg: regReset, Err: err}
	}
	return nil
}

// Shutdown puts the chip into software shutdown with channels disabled.
// Configure brings it back.
func (d *Device) Shutdown() error {
	return d.settleWrite(regShutdown, 0)
}

// SetMode selects PWM or breathing control of the outputs.
func (d *Device) SetMode(m Mode) error {
	v, ok := m.Encode()
	if !ok {
		return ErrInvalidSetting
	}
	return d.settleWrite(regLEDMode, v)
}

// SetCurrent sets the output current scale shared by all channels.
func (d *Device) SetCurrent(c Current) error {
	v, ok := c.Encode()
	if !ok {
		return ErrInvalidSetting
	}
	return d.settleWrite(regCurrent, v)
}

// EnableChannels writes the channel enable mask and latches it. Channels
// keep whatever state the previous mask gave them until this is called.
func (d *Device) EnableChannels(ch1, ch2, ch3 bool) error {
	var mask byte
	if ch1 {
		mask |= 0b001
	}
	if ch2 {
		mask |= 0b010
	}
	if ch3 {
		mask |= 0b100
	}
	if err := d.settleWrite(regLEDControl, mask); err != nil {
		return err
	}
	return d.loadData()
}

// SetPWMLevels stages the three PWM levels (0 off, 255 full) in channel
// order and latches them. The chip ignores them while in breathing mode.
func (d *Device) SetPWMLevels(l1, l2, l3 uint8) error {
	if err := d.settleWrite(regPWM1, l1); err != nil {
		return err
	}
	if err := d.settleWrite(regPWM2, l2); err != nil {
		return err
	}
	if err := d.settleWrite(regPWM3, l3); err != nil {
		return err
	}
	return d.loadData()
}

// SetBreathingTimes writes the breathing segments for ch and latches them.
// ChannelAll writes the same values to all three channels.
func (d *Device) SetBreathingTimes(ch Channel, intro IntroTime, rampUp RampUpTime,
	holdHigh HoldHighTime, rampDown RampDownTime, holdLow HoldLowTime) error {
	return d.SetBreathing(ch, BreathingTimes{
		Intro:    intro,
		RampUp:   rampUp,
		HoldHigh: holdHigh,
		RampDown: rampDown,
		HoldLow:  holdLow,
	})
}

// SetBreathing is SetBreathingTimes with the segments grouped.
func (d *Device) SetBreathing(ch Channel, bt BreathingTimes) error {
	mask := ch.mask()
	t0, t1t2, t3t4, ok := bt.encode()
	if mask == 0 || !ok {
		return ErrInvalidSetting
	}
	for i := byte(0); i < 3; i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		if err := d.settleWrite(regT0Base+i, t0); err != nil {
			return err
		}
		if err := d.settleWrite(regT1T2Base+i, t1t2); err != nil {
			return err
		}
		if err := d.settleWrite(regT3T4Base+i, t3t4); err != nil {
			return err
		}
	}
	return d.loadTimes()
}

// loadData commits staged PWM levels and channel enables.
func (d *Device) loadData() error { return d.settleWrite(regDataUpdate, latchValue) }

// loadTimes commits staged breathing timings.
func (d *Device) loadTimes() error { return d.settleWrite(regTimeUpdate, latchValue) }

func (d *Device) settleWrite(reg, val byte) error {
	d.delay(settleDelayMs)
	return d.writeReg(reg, val)
}

func (d *Device) writeReg(reg, val byte) error {
	d.w[0] = reg
	d.w[1] = val
	if err := d.bus.Tx(d.addr, d.w[:2], nil); err != nil {
		return &BusError{Reg: reg, Err: err}
	}
	return nil
}
