package sn3193

// I2C addresses selected by the AD pin strap.
const (
	AddressGND = 0x68
	AddressSCL = 0x69
	AddressSDA = 0x6A
	AddressVDD = 0x6B

	AddressDefault = AddressGND
)

// Register map.
const (
	regShutdown         = 0x00
	regBreathingControl = 0x01 // not driven by this package
	regLEDMode          = 0x02
	regCurrent          = 0x03
	regPWM1             = 0x04
	regPWM2             = 0x05
	regPWM3             = 0x06
	regDataUpdate       = 0x07
	regT0Base           = 0x0A // 0x0A..0x0C, one per channel
	regT1T2Base         = 0x10 // 0x10..0x12
	regT3T4Base         = 0x16 // 0x16..0x18
	regTimeUpdate       = 0x1C
	regLEDControl       = 0x1D
	regReset            = 0x2F
)

// Shutdown register bits.
const (
	shutdownChannelEnable = 0x20 // bit 5
	softwareNormal        = 0x01 // bit 0; clear = software shutdown
)

// Any value written to an update register commits the staged data.
const latchValue = 0xFF

// Timing.
const (
	powerUpDelayMs = 50
	// settleDelayMs precedes every register write. The chip drops writes
	// intermittently without it; the datasheet does not mention it.
	settleDelayMs = 1
)

// ValidAddress reports whether addr is one of the four strap addresses.
// Constructors do not enforce it.
func ValidAddress(addr uint16) bool {
	switch addr {
	case AddressGND, AddressSCL, AddressSDA, AddressVDD:
		return true
	default:
		return false
	}
}
