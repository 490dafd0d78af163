package sn3193

import "strings"

// Each setting is a closed set of constants. Encode switches over every
// declared value and reports ok=false for anything else, so adding a value
// without a register pattern fails before reaching the bus.

// ---------------- Mode (register 0x02) ----------------

type Mode uint8

const (
	ModePWM       Mode = iota // channels follow the PWM registers
	ModeBreathing             // channels follow the internal breathing cycle
	modeCount
)

func (m Mode) Encode() (byte, bool) {
	switch m {
	case ModePWM:
		return 0x00, true
	case ModeBreathing:
		return 0x20, true // bit 5 (RM)
	default:
		return 0, false
	}
}

func (m Mode) String() string {
	switch m {
	case ModePWM:
		return "pwm"
	case ModeBreathing:
		return "breathing"
	default:
		return "invalid"
	}
}

func ParseMode(s string) (Mode, bool) { return parseSetting(s, modeCount) }

// ---------------- Current limit (register 0x03) ----------------

// Current is the global output current scale. The zero value is unset.
type Current uint8

const (
	Current42mA Current = iota + 1
	Current30mA
	Current17p5mA
	Current10mA
	Current5mA
	currentCount
)

// Bits 4:2 (CS).
func (c Current) Encode() (byte, bool) {
	switch c {
	case Current42mA:
		return 0x00, true
	case Current10mA:
		return 0x04, true
	case Current5mA:
		return 0x08, true
	case Current30mA:
		return 0x0C, true
	case Current17p5mA:
		return 0x10, true
	default:
		return 0, false
	}
}

func (c Current) String() string {
	switch c {
	case Current42mA:
		return "42mA"
	case Current30mA:
		return "30mA"
	case Current17p5mA:
		return "17.5mA"
	case Current10mA:
		return "10mA"
	case Current5mA:
		return "5mA"
	default:
		return "invalid"
	}
}

func ParseCurrent(s string) (Current, bool) { return parseSetting(s, currentCount) }

// ---------------- Channels ----------------

type Channel uint8

const (
	Channel1 Channel = iota + 1
	Channel2
	Channel3
	ChannelAll
	channelCount
)

// mask returns the set of physical outputs selected (bit0 = channel 1).
func (c Channel) mask() byte {
	switch c {
	case Channel1:
		return 0b001
	case Channel2:
		return 0b010
	case Channel3:
		return 0b100
	case ChannelAll:
		return 0b111
	default:
		return 0
	}
}

func (c Channel) String() string {
	switch c {
	case Channel1:
		return "1"
	case Channel2:
		return "2"
	case Channel3:
		return "3"
	case ChannelAll:
		return "all"
	default:
		return "invalid"
	}
}

func ParseChannel(s string) (Channel, bool) { return parseSetting(s, channelCount) }

// ---------------- Breathing timing ----------------
//
// The device clock divides into 0.13 s doublings. Not every segment accepts
// every duration: ramps have no 0 s step, and only the intro and hold-low
// segments reach 33.28 s and 66.56 s.

var durationNames = [...]string{
	"0s", "0.13s", "0.26s", "0.52s", "1.04s", "2.08s",
	"4.16s", "8.32s", "16.64s", "33.28s", "66.56s",
}

// IntroTime is T0: delay before the first ramp-up. Bits 7:4.
type IntroTime uint8

const (
	Intro0s IntroTime = iota
	Intro0p13s
	Intro0p26s
	Intro0p52s
	Intro1p04s
	Intro2p08s
	Intro4p16s
	Intro8p32s
	Intro16p64s
	Intro33p28s
	Intro66p56s
	introCount
)

func (t IntroTime) Encode() (byte, bool) {
	switch t {
	case Intro0s, Intro0p13s, Intro0p26s, Intro0p52s, Intro1p04s, Intro2p08s,
		Intro4p16s, Intro8p32s, Intro16p64s, Intro33p28s, Intro66p56s:
		return byte(t) << 4, true
	default:
		return 0, false
	}
}

func (t IntroTime) String() string {
	if t >= introCount {
		return "invalid"
	}
	return durationNames[t]
}

func ParseIntroTime(s string) (IntroTime, bool) { return parseSetting(s, introCount) }

// RampUpTime is T1: fade from off to full brightness. Bits 7:5.
type RampUpTime uint8

const (
	RampUp0p13s RampUpTime = iota
	RampUp0p26s
	RampUp0p52s
	RampUp1p04s
	RampUp2p08s
	RampUp4p16s
	RampUp8p32s
	RampUp16p64s
	rampUpCount
)

func (t RampUpTime) Encode() (byte, bool) {
	switch t {
	case RampUp0p13s, RampUp0p26s, RampUp0p52s, RampUp1p04s,
		RampUp2p08s, RampUp4p16s, RampUp8p32s, RampUp16p64s:
		return byte(t) << 5, true
	default:
		return 0, false
	}
}

func (t RampUpTime) String() string {
	if t >= rampUpCount {
		return "invalid"
	}
	return durationNames[t+1] // no 0 s step
}

func ParseRampUpTime(s string) (RampUpTime, bool) { return parseSetting(s, rampUpCount) }

// RampDownTime is T3: fade from full brightness to off. Bits 7:5.
type RampDownTime uint8

const (
	RampDown0p13s RampDownTime = iota
	RampDown0p26s
	RampDown0p52s
	RampDown1p04s
	RampDown2p08s
	RampDown4p16s
	RampDown8p32s
	RampDown16p64s
	rampDownCount
)

func (t RampDownTime) Encode() (byte, bool) {
	switch t {
	case RampDown0p13s, RampDown0p26s, RampDown0p52s, RampDown1p04s,
		RampDown2p08s, RampDown4p16s, RampDown8p32s, RampDown16p64s:
		return byte(t) << 5, true
	default:
		return 0, false
	}
}

func (t RampDownTime) String() string {
	if t >= rampDownCount {
		return "invalid"
	}
	return durationNames[t+1]
}

func ParseRampDownTime(s string) (RampDownTime, bool) { return parseSetting(s, rampDownCount) }

// HoldHighTime is T2: time spent at full brightness. Bits 4:1.
type HoldHighTime uint8

const (
	HoldHigh0s HoldHighTime = iota
	HoldHigh0p13s
	HoldHigh0p26s
	HoldHigh0p52s
	HoldHigh1p04s
	HoldHigh2p08s
	HoldHigh4p16s
	HoldHigh8p32s
	HoldHigh16p64s
	holdHighCount
)

func (t HoldHighTime) Encode() (byte, bool) {
	switch t {
	case HoldHigh0s, HoldHigh0p13s, HoldHigh0p26s, HoldHigh0p52s, HoldHigh1p04s,
		HoldHigh2p08s, HoldHigh4p16s, HoldHigh8p32s, HoldHigh16p64s:
		return byte(t) << 1, true
	default:
		return 0, false
	}
}

func (t HoldHighTime) String() string {
	if t >= holdHighCount {
		return "invalid"
	}
	return durationNames[t]
}

func ParseHoldHighTime(s string) (HoldHighTime, bool) { return parseSetting(s, holdHighCount) }

// HoldLowTime is T4: time spent off between cycles. Bits 4:1.
type HoldLowTime uint8

const (
	HoldLow0s HoldLowTime = iota
	HoldLow0p13s
	HoldLow0p26s
	HoldLow0p52s
	HoldLow1p04s
	HoldLow2p08s
	HoldLow4p16s
	HoldLow8p32s
	HoldLow16p64s
	HoldLow33p28s
	HoldLow66p56s
	holdLowCount
)

func (t HoldLowTime) Encode() (byte, bool) {
	switch t {
	case HoldLow0s, HoldLow0p13s, HoldLow0p26s, HoldLow0p52s, HoldLow1p04s, HoldLow2p08s,
		HoldLow4p16s, HoldLow8p32s, HoldLow16p64s, HoldLow33p28s, HoldLow66p56s:
		return byte(t) << 1, true
	default:
		return 0, false
	}
}

func (t HoldLowTime) String() string {
	if t >= holdLowCount {
		return "invalid"
	}
	return durationNames[t]
}

func ParseHoldLowTime(s string) (HoldLowTime, bool) { return parseSetting(s, holdLowCount) }

// BreathingTimes groups the five segments of one breathing cycle.
type BreathingTimes struct {
	Intro    IntroTime
	RampUp   RampUpTime
	HoldHigh HoldHighTime
	RampDown RampDownTime
	HoldLow  HoldLowTime
}

// DefaultBreathingTimes is a slow symmetric breath.
func DefaultBreathingTimes() BreathingTimes {
	return BreathingTimes{
		Intro:    Intro1p04s,
		RampUp:   RampUp4p16s,
		HoldHigh: HoldHigh1p04s,
		RampDown: RampDown4p16s,
		HoldLow:  HoldLow2p08s,
	}
}

// encode packs the segments into the T0, T1|T2 and T3|T4 register values.
func (b BreathingTimes) encode() (t0, t1t2, t3t4 byte, ok bool) {
	var up, high, down, low byte
	var ok0, ok1, ok2, ok3, ok4 bool
	t0, ok0 = b.Intro.Encode()
	up, ok1 = b.RampUp.Encode()
	high, ok2 = b.HoldHigh.Encode()
	down, ok3 = b.RampDown.Encode()
	low, ok4 = b.HoldLow.Encode()
	if !(ok0 && ok1 && ok2 && ok3 && ok4) {
		return 0, 0, 0, false
	}
	return t0, up | high, down | low, true
}

// ---------------- parsing ----------------

// parseSetting matches s (case-insensitive) against String() of every value
// below n.
func parseSetting[T interface {
	~uint8
	String() string
}](s string, n T) (T, bool) {
	s = strings.TrimSpace(s)
	for v := T(0); v < n; v++ {
		name := v.String()
		if name != "invalid" && strings.EqualFold(name, s) {
			return v, true
		}
	}
	return 0, false
}
