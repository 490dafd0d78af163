package sn3193

import "testing"

func TestModeEncode(t *testing.T) {
	cases := []struct {
		m    Mode
		want byte
	}{
		{ModePWM, 0b00_0_00000},
		{ModeBreathing, 0b00_1_00000},
	}
	for _, c := range cases {
		got, ok := c.m.Encode()
		if !ok || got != c.want {
			t.Errorf("%v: got 0x%02X ok=%v, want 0x%02X", c.m, got, ok, c.want)
		}
	}
	if _, ok := modeCount.Encode(); ok {
		t.Error("out-of-range mode encoded")
	}
}

func TestCurrentEncode(t *testing.T) {
	cases := []struct {
		c    Current
		want byte
	}{
		{Current42mA, 0b000_000_00},
		{Current10mA, 0b000_001_00},
		{Current5mA, 0b000_010_00},
		{Current30mA, 0b000_011_00},
		{Current17p5mA, 0b000_100_00},
	}
	for _, c := range cases {
		got, ok := c.c.Encode()
		if !ok || got != c.want {
			t.Errorf("%v: got 0x%02X ok=%v, want 0x%02X", c.c, got, ok, c.want)
		}
	}
	for _, bad := range []Current{0, currentCount, 0xFF} {
		if _, ok := bad.Encode(); ok {
			t.Errorf("Current(%d) encoded", bad)
		}
	}
}

func TestIntroEncode(t *testing.T) {
	want := []byte{0x00, 0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80, 0x90, 0xA0}
	for i, w := range want {
		got, ok := IntroTime(i).Encode()
		if !ok || got != w {
			t.Errorf("%v: got 0x%02X ok=%v, want 0x%02X", IntroTime(i), got, ok, w)
		}
	}
	if _, ok := introCount.Encode(); ok {
		t.Error("out-of-range intro encoded")
	}
}

func TestRampEncode(t *testing.T) {
	want := []byte{
		0b000_0000_0, 0b001_0000_0, 0b010_0000_0, 0b011_0000_0,
		0b100_0000_0, 0b101_0000_0, 0b110_0000_0, 0b111_0000_0,
	}
	for i, w := range want {
		up, okUp := RampUpTime(i).Encode()
		down, okDown := RampDownTime(i).Encode()
		if !okUp || up != w {
			t.Errorf("%v up: got 0x%02X, want 0x%02X", RampUpTime(i), up, w)
		}
		if !okDown || down != w {
			t.Errorf("%v down: got 0x%02X, want 0x%02X", RampDownTime(i), down, w)
		}
	}
	if _, ok := rampUpCount.Encode(); ok {
		t.Error("out-of-range ramp-up encoded")
	}
	if _, ok := rampDownCount.Encode(); ok {
		t.Error("out-of-range ramp-down encoded")
	}
}

func TestHoldEncode(t *testing.T) {
	want := []byte{
		0b000_0000_0, 0b000_0001_0, 0b000_0010_0, 0b000_0011_0, 0b000_0100_0,
		0b000_0101_0, 0b000_0110_0, 0b000_0111_0, 0b000_1000_0, 0b000_1001_0, 0b000_1010_0,
	}
	for i, w := range want {
		low, ok := HoldLowTime(i).Encode()
		if !ok || low != w {
			t.Errorf("%v low: got 0x%02X, want 0x%02X", HoldLowTime(i), low, w)
		}
		if HoldHighTime(i) >= holdHighCount {
			continue
		}
		high, ok := HoldHighTime(i).Encode()
		if !ok || high != w {
			t.Errorf("%v high: got 0x%02X, want 0x%02X", HoldHighTime(i), high, w)
		}
	}
	if _, ok := holdHighCount.Encode(); ok {
		t.Error("hold-high accepted 33.28s")
	}
	if _, ok := holdLowCount.Encode(); ok {
		t.Error("out-of-range hold-low encoded")
	}
}

func TestBreathingTimesPacking(t *testing.T) {
	bt := BreathingTimes{
		Intro:    Intro1p04s,
		RampUp:   RampUp4p16s,
		HoldHigh: HoldHigh1p04s,
		RampDown: RampDown0p13s,
		HoldLow:  HoldLow66p56s,
	}
	t0, t1t2, t3t4, ok := bt.encode()
	if !ok {
		t.Fatal("encode failed")
	}
	if t0 != 0x40 || t1t2 != 0xA0|0x08 || t3t4 != 0x00|0x14 {
		t.Fatalf("got T0=0x%02X T1T2=0x%02X T3T4=0x%02X", t0, t1t2, t3t4)
	}

	bt.HoldHigh = holdHighCount
	if _, _, _, ok := bt.encode(); ok {
		t.Fatal("invalid segment packed")
	}
}

func TestParseSettings(t *testing.T) {
	if m, ok := ParseMode("Breathing"); !ok || m != ModeBreathing {
		t.Errorf("ParseMode: %v %v", m, ok)
	}
	if c, ok := ParseCurrent("17.5mA"); !ok || c != Current17p5mA {
		t.Errorf("ParseCurrent: %v %v", c, ok)
	}
	if c, ok := ParseChannel(" all "); !ok || c != ChannelAll {
		t.Errorf("ParseChannel: %v %v", c, ok)
	}
	if v, ok := ParseIntroTime("66.56s"); !ok || v != Intro66p56s {
		t.Errorf("ParseIntroTime: %v %v", v, ok)
	}
	if v, ok := ParseRampUpTime("0.13s"); !ok || v != RampUp0p13s {
		t.Errorf("ParseRampUpTime: %v %v", v, ok)
	}
	if v, ok := ParseRampDownTime("16.64s"); !ok || v != RampDown16p64s {
		t.Errorf("ParseRampDownTime: %v %v", v, ok)
	}
	if v, ok := ParseHoldHighTime("0s"); !ok || v != HoldHigh0s {
		t.Errorf("ParseHoldHighTime: %v %v", v, ok)
	}
	if v, ok := ParseHoldLowTime("33.28s"); !ok || v != HoldLow33p28s {
		t.Errorf("ParseHoldLowTime: %v %v", v, ok)
	}

	// Values outside a segment's table are rejected.
	for _, s := range []string{"0s", "33.28s", "bogus"} {
		if _, ok := ParseRampUpTime(s); ok {
			t.Errorf("ParseRampUpTime(%q) accepted", s)
		}
	}
	if _, ok := ParseHoldHighTime("66.56s"); ok {
		t.Error("ParseHoldHighTime accepted 66.56s")
	}
	if _, ok := ParseCurrent("invalid"); ok {
		t.Error("ParseCurrent accepted the invalid marker")
	}
}
