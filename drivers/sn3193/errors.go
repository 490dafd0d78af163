package sn3193

import "errors"

var (
	// Sentinel errors (TinyGo-safe; no fmt)
	ErrBus            = errors.New("sn3193: bus error")
	ErrInvalidSetting = errors.New("sn3193: invalid setting")
)

// BusError is returned when a register write fails on the bus. Writes issued
// earlier in the same operation have already reached the device.
type BusError struct {
	Reg byte  // register being written
	Err error // transport error
}

func (e *BusError) Error() string {
	if e.Err == nil {
		return ErrBus.Error()
	}
	return ErrBus.Error() + ": " + e.Err.Error()
}

func (e *BusError) Unwrap() error { return e.Err }

func (e *BusError) Is(target error) bool { return target == ErrBus }

// BusFault marks the error as a transport failure for errcode.MapDriverErr.
func (e *BusError) BusFault() bool { return true }
