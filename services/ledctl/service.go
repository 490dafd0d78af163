// Package ledctl exposes an SN3193 on the bus.
//
// Topics, under hal/cap/<domain>/led/<name>:
//
//	info               retained types.Info{Detail: types.LEDInfo}
//	status             retained types.CapabilityStatus
//	value              retained types.LEDState (last commanded state)
//	control/<verb>     requests; replies types.OKReply or types.ErrorReply
//
// Verbs: init, shutdown, mode, current, enable, pwm, breathing.
//
// The service owns the device. Requests are executed one at a time, in
// arrival order, on the Run goroutine, so writes from different clients never
// interleave on the chip. A request that arrives while the bus queue is full
// is answered "busy" straight away and never reaches the device.
package ledctl

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ledcode-go/bus"
	"ledcode-go/drivers/sn3193"
	"ledcode-go/errcode"
	"ledcode-go/types"
	"ledcode-go/x/strx"
)

const driverName = "sn3193"

// Controller is the part of *sn3193.Device the service drives.
type Controller interface {
	Address() uint16
	Configure() error
	Shutdown() error
	SetMode(m sn3193.Mode) error
	SetCurrent(c sn3193.Current) error
	EnableChannels(ch1, ch2, ch3 bool) error
	SetPWMLevels(l1, l2, l3 uint8) error
	SetBreathing(ch sn3193.Channel, bt sn3193.BreathingTimes) error
}

var _ Controller = (*sn3193.Device)(nil)

type Config struct {
	Domain string // default "io"
	Name   string // default "sn3193"
	// InitOnStart runs Configure before serving requests.
	InitOnStart bool
	Logger      *slog.Logger
}

type Service struct {
	conn *bus.Connection
	dev  Controller
	base bus.Topic
	log  *slog.Logger

	initOnStart bool
	state       types.LEDState
}

func New(conn *bus.Connection, dev Controller, cfg Config) *Service {
	dom := strx.Coalesce(cfg.Domain, "io")
	name := strx.Coalesce(cfg.Name, driverName)
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		conn:        conn,
		dev:         dev,
		base:        Base(dom, name),
		log:         log.With("cap", dom+"/led/"+name),
		initOnStart: cfg.InitOnStart,
	}
}

// Base returns hal/cap/<domain>/led/<name>.
func Base(domain, name string) bus.Topic {
	return bus.T("hal", "cap", domain, string(types.KindLED), name)
}

// Control returns the request topic for verb.
func Control(domain, name, verb string) bus.Topic {
	return Base(domain, name).Append("control", verb)
}

// Run serves control requests until ctx is done.
func (s *Service) Run(ctx context.Context) {
	sub := s.conn.SubscribeRequests(s.base.Append("control", "+"), s.refuse)
	defer s.conn.Unsubscribe(sub)

	s.conn.Publish(&bus.Message{
		Topic: s.base.Append("info"),
		Payload: types.Info{
			SchemaVersion: 1,
			Driver:        driverName,
			Detail:        types.LEDInfo{Address: s.dev.Address(), Channels: 3},
		},
		Retained: true,
	})

	if s.initOnStart {
		if err := s.apply("init", nil); err != nil {
			s.log.Error("init failed", "err", err)
		}
	} else {
		s.publishStatus(types.LinkDown, "")
	}

	for {
		select {
		case <-ctx.Done():
			s.publishStatus(types.LinkDown, "stopped")
			return
		case m, ok := <-sub.Channel():
			if !ok {
				return
			}
			s.handle(m)
		}
	}
}

func (s *Service) handle(m *bus.Message) {
	verb := m.Topic[len(m.Topic)-1]
	if err := s.apply(verb, m.Payload); err != nil {
		code := errcode.Of(err)
		s.log.Warn("control failed", "verb", verb, "code", string(code), "err", err)
		s.conn.Reply(m, types.ErrorReply{OK: false, Error: string(code)}, false)
		return
	}
	s.log.Debug("control", "verb", verb)
	s.conn.Reply(m, types.OKReply{OK: true}, false)
}

// refuse answers a request the control queue had no room for. It runs on
// the publisher's goroutine.
func (s *Service) refuse(m *bus.Message) {
	s.log.Warn("control queue full", "topic", m.Topic.String())
	s.conn.Reply(m, types.ErrorReply{OK: false, Error: string(errcode.Busy)}, false)
}

// apply executes one verb. Payload and setting problems are reported before
// any bus traffic; driver failures mark the capability degraded. Errors
// carry their errcode.Code.
func (s *Service) apply(verb string, payload any) error {
	next := s.state
	var err error

	switch verb {
	case "init":
		err = s.dev.Configure()
		if err == nil {
			next = types.LEDState{
				Mode:    sn3193.ModePWM.String(),
				Current: sn3193.Current17p5mA.String(),
				Enabled: [3]bool{true, true, true},
			}
		}

	case "shutdown":
		err = s.dev.Shutdown()
		next.Shutdown = true
		next.Enabled = [3]bool{}

	case "mode":
		p, code := as[types.LEDModeSet](payload)
		if code != "" {
			return code
		}
		mode, ok := sn3193.ParseMode(p.Mode)
		if !ok {
			return errcode.Wrap(errcode.InvalidParams, verb, errors.New("mode "+p.Mode))
		}
		err = s.dev.SetMode(mode)
		next.Mode = mode.String()

	case "current":
		p, code := as[types.LEDCurrentSet](payload)
		if code != "" {
			return code
		}
		cur, ok := sn3193.ParseCurrent(p.Current)
		if !ok {
			return errcode.Wrap(errcode.InvalidParams, verb, errors.New("current "+p.Current))
		}
		err = s.dev.SetCurrent(cur)
		next.Current = cur.String()

	case "enable":
		p, code := as[types.LEDEnableSet](payload)
		if code != "" {
			return code
		}
		err = s.dev.EnableChannels(p.Ch1, p.Ch2, p.Ch3)
		next.Enabled = [3]bool{p.Ch1, p.Ch2, p.Ch3}

	case "pwm":
		p, code := as[types.LEDPWMSet](payload)
		if code != "" {
			return code
		}
		err = s.dev.SetPWMLevels(p.Levels[0], p.Levels[1], p.Levels[2])
		next.Levels = p.Levels

	case "breathing":
		p, code := as[types.LEDBreathingSet](payload)
		if code != "" {
			return code
		}
		ch, bt, perr := parseBreathing(p)
		if perr != nil {
			return errcode.Wrap(errcode.InvalidParams, verb, perr)
		}
		err = s.dev.SetBreathing(ch, bt)
		for i := range next.Breathing {
			if ch == sn3193.ChannelAll || int(ch) == i+1 {
				next.Breathing[i] = breathingState(bt)
			}
		}

	default:
		return errcode.Unsupported
	}

	if errors.Is(err, sn3193.ErrInvalidSetting) {
		return errcode.Wrap(errcode.InvalidParams, verb, err)
	}
	if err != nil {
		code := errcode.MapDriverErr(err)
		s.publishStatus(types.LinkDegraded, string(code))
		return errcode.Wrap(code, verb, err)
	}
	s.state = next
	s.publishStatus(types.LinkUp, "")
	s.conn.Publish(&bus.Message{Topic: s.base.Append("value"), Payload: s.state, Retained: true})
	return nil
}

// breathingState renders parsed timings in their canonical spelling.
func breathingState(bt sn3193.BreathingTimes) types.LEDBreathing {
	return types.LEDBreathing{
		Intro:    bt.Intro.String(),
		RampUp:   bt.RampUp.String(),
		HoldHigh: bt.HoldHigh.String(),
		RampDown: bt.RampDown.String(),
		HoldLow:  bt.HoldLow.String(),
	}
}

func parseBreathing(p types.LEDBreathingSet) (sn3193.Channel, sn3193.BreathingTimes, error) {
	var bt sn3193.BreathingTimes
	ch, ok := sn3193.ParseChannel(strx.Coalesce(p.Channel, "all"))
	if !ok {
		return 0, bt, errors.New("channel " + p.Channel)
	}
	if bt.Intro, ok = sn3193.ParseIntroTime(p.Intro); !ok {
		return 0, bt, errors.New("intro " + p.Intro)
	}
	if bt.RampUp, ok = sn3193.ParseRampUpTime(p.RampUp); !ok {
		return 0, bt, errors.New("ramp_up " + p.RampUp)
	}
	if bt.HoldHigh, ok = sn3193.ParseHoldHighTime(p.HoldHigh); !ok {
		return 0, bt, errors.New("hold_high " + p.HoldHigh)
	}
	if bt.RampDown, ok = sn3193.ParseRampDownTime(p.RampDown); !ok {
		return 0, bt, errors.New("ramp_down " + p.RampDown)
	}
	if bt.HoldLow, ok = sn3193.ParseHoldLowTime(p.HoldLow); !ok {
		return 0, bt, errors.New("hold_low " + p.HoldLow)
	}
	return ch, bt, nil
}

func (s *Service) publishStatus(link types.Link, code string) {
	s.conn.Publish(&bus.Message{
		Topic:    s.base.Append("status"),
		Payload:  types.CapabilityStatus{Link: link, TS: time.Now().UnixNano(), Error: code},
		Retained: true,
	})
}

// as asserts a payload to the concrete value type T.
// Pointers and nil payloads are not accepted.
func as[T any](v any) (T, errcode.Code) {
	var zero T
	t, ok := v.(T)
	if !ok {
		return zero, errcode.InvalidPayload
	}
	return t, ""
}
