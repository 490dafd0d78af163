package errcode

import (
	"context"
	"errors"
	"testing"

	"ledcode-go/drivers/sn3193"
)

func TestOf(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{nil, OK},
		{Busy, Busy},
		{Wrap(InvalidParams, "pwm", errors.New("x")), InvalidParams},
		{Wrap(InvalidParams, "pwm", Busy), InvalidParams},
		{errors.New("plain"), Error},
	}
	for _, c := range cases {
		if got := Of(c.err); got != c.want {
			t.Errorf("Of(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestWrap(t *testing.T) {
	if Wrap(Error, "op", nil) != nil {
		t.Fatal("Wrap(nil) != nil")
	}
	cause := errors.New("cause")
	err := Wrap(IOError, "enable", cause)
	if err.Error() != "enable: io_error" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause lost")
	}
}

func TestMapDriverErr(t *testing.T) {
	bus := &sn3193.BusError{Reg: 0x07, Err: errors.New("nack")}
	if got := MapDriverErr(bus); got != IOError {
		t.Fatalf("bus error -> %q", got)
	}
	if got := MapDriverErr(Wrap(Error, "op", bus)); got != IOError {
		t.Fatalf("wrapped bus error -> %q", got)
	}
	if got := MapDriverErr(context.DeadlineExceeded); got != Timeout {
		t.Fatalf("deadline -> %q", got)
	}
	if got := MapDriverErr(sn3193.ErrInvalidSetting); got != Error {
		t.Fatalf("invalid setting -> %q", got)
	}
	if got := MapDriverErr(nil); got != OK {
		t.Fatalf("nil -> %q", got)
	}
}
