package types

// ------------------------
// SN3193 LED controller
// ------------------------
//
// Settings travel as strings ("pwm", "17.5mA", "2.08s", "all") so payloads
// stay readable on the bus and in logs; the service parses them.

type LEDInfo struct {
	Address  uint16 `json:"address"`
	Channels int    `json:"channels"`
}

// LEDState is the last commanded configuration. It is not read back from
// the chip.
type LEDState struct {
	Mode      string          `json:"mode"`
	Current   string          `json:"current"`
	Enabled   [3]bool         `json:"enabled"`
	Levels    [3]uint8        `json:"levels"`
	Breathing [3]LEDBreathing `json:"breathing"`
	Shutdown  bool            `json:"shutdown"`
}

type LEDBreathing struct {
	Intro    string `json:"intro"`
	RampUp   string `json:"ramp_up"`
	HoldHigh string `json:"hold_high"`
	RampDown string `json:"ramp_down"`
	HoldLow  string `json:"hold_low"`
}

// Controls

type LEDModeSet struct {
	Mode string `json:"mode"` // "pwm" | "breathing"
}

type LEDCurrentSet struct {
	Current string `json:"current"` // "42mA","30mA","17.5mA","10mA","5mA"
}

type LEDEnableSet struct {
	Ch1 bool `json:"ch1"`
	Ch2 bool `json:"ch2"`
	Ch3 bool `json:"ch3"`
}

type LEDPWMSet struct {
	Levels [3]uint8 `json:"levels"` // 0 off .. 255 full
}

type LEDBreathingSet struct {
	Channel string `json:"channel"` // "1","2","3","all"
	LEDBreathing
}
