// Command sn3193-demo drives an SN3193 attached to a Linux I2C bus.
//
//	sn3193-demo --bus 1 --pwm 255,64,0
//	sn3193-demo --mode breathing --channel all --ramp-up 2.08s --hold-low 1.04s
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"ledcode-go/bus"
	"ledcode-go/drivers/sn3193"
	"ledcode-go/services/ledctl"
	"ledcode-go/types"
	"ledcode-go/x/strx"
)

var (
	busName  = ""
	address  = uint16(sn3193.AddressDefault)
	mode     = "pwm"
	current  = "17.5mA"
	pwm      = "255,255,255"
	channel  = "all"
	intro    = "0s"
	rampUp   = "1.04s"
	holdHigh = "0.52s"
	rampDown = "1.04s"
	holdLow  = "1.04s"
	hold     = false
	verbose  = false
)

func init() {
	pflag.StringVarP(&busName, "bus", "b", busName, "I2C bus name or number (empty = first available)")
	pflag.Uint16VarP(&address, "addr", "a", address, "device address (0x68, 0x69, 0x6A or 0x6B)")
	pflag.StringVarP(&mode, "mode", "m", mode, "pwm or breathing")
	pflag.StringVarP(&current, "current", "c", current, "current limit: 42mA, 30mA, 17.5mA, 10mA, 5mA")
	pflag.StringVar(&pwm, "pwm", pwm, "PWM levels for channels 1,2,3 (0-255)")
	pflag.StringVar(&channel, "channel", channel, "breathing channel: 1, 2, 3 or all")
	pflag.StringVar(&intro, "intro", intro, "breathing intro delay")
	pflag.StringVar(&rampUp, "ramp-up", rampUp, "breathing ramp-up time")
	pflag.StringVar(&holdHigh, "hold-high", holdHigh, "breathing hold-high time")
	pflag.StringVar(&rampDown, "ramp-down", rampDown, "breathing ramp-down time")
	pflag.StringVar(&holdLow, "hold-low", holdLow, "breathing hold-low time")
	pflag.BoolVar(&hold, "hold", hold, "keep running until interrupted, then shut the chip down")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	levels, err := parseLevels(pwm)
	if err != nil {
		return err
	}
	if !sn3193.ValidAddress(address) {
		logger.Warn("address is not an SN3193 strap address", "addr", fmt.Sprintf("%#02x", address))
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialise host drivers: %w", err)
	}
	i2c, err := i2creg.Open(busName)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus %q: %w", busName, err)
	}
	defer i2c.Close()
	logger.Info("opened bus", "bus", i2c.String(), "addr", fmt.Sprintf("%#02x", address))

	dev := sn3193.NewWithAddress(i2c, nil, address)

	b := bus.NewBus(8)
	client := b.NewConnection("demo")
	status := client.Subscribe(ledctl.Base("io", "sn3193").Append("status"))

	// The service outlives ctx so the final shutdown request can still be served.
	svcCtx, stop := context.WithCancel(context.Background())
	svc := ledctl.New(b.NewConnection("ledctl"), dev, ledctl.Config{
		InitOnStart: true,
		Logger:      logger.With("component", "ledctl"),
	})
	var g errgroup.Group
	g.Go(func() error {
		svc.Run(svcCtx)
		return nil
	})
	defer func() {
		stop()
		g.Wait()
	}()

	// The first status follows the init sequence.
	st := (<-status.Channel()).Payload.(types.CapabilityStatus)
	client.Unsubscribe(status)
	if st.Link != types.LinkUp {
		return fmt.Errorf("device init failed: %s", st.Error)
	}

	steps := []step{
		{"current", types.LEDCurrentSet{Current: current}},
		{"pwm", types.LEDPWMSet{Levels: levels}},
	}
	if strings.EqualFold(mode, sn3193.ModeBreathing.String()) {
		steps = append(steps, step{"breathing", types.LEDBreathingSet{
			Channel: channel,
			LEDBreathing: types.LEDBreathing{
				Intro: intro, RampUp: rampUp, HoldHigh: holdHigh, RampDown: rampDown, HoldLow: holdLow,
			},
		}})
	}
	// Mode goes last so breathing starts with its timings already latched.
	steps = append(steps, step{"mode", types.LEDModeSet{Mode: mode}})

	for _, s := range steps {
		if err := request(ctx, client, s.verb, s.payload); err != nil {
			return err
		}
		logger.Debug("applied", "verb", s.verb, "payload", s.payload)
	}
	logger.Info("device configured", "mode", mode, "current", current)

	if !hold {
		return nil
	}
	<-ctx.Done()

	// ctx is cancelled; give the shutdown request its own deadline.
	offCtx, offCancel := context.WithTimeout(context.Background(), time.Second)
	defer offCancel()
	return request(offCtx, client, "shutdown", nil)
}

type step struct {
	verb    string
	payload any
}

func request(ctx context.Context, c *bus.Connection, verb string, payload any) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	reply, err := c.RequestWait(ctx, &bus.Message{Topic: ledctl.Control("io", "sn3193", verb), Payload: payload})
	if err != nil {
		return fmt.Errorf("%s: %w", verb, err)
	}
	if r, ok := reply.Payload.(types.ErrorReply); ok {
		return fmt.Errorf("%s: %s", verb, r.Error)
	}
	return nil
}

func parseLevels(s string) ([3]uint8, error) {
	var out [3]uint8
	parts := strx.Fields(s, ",")
	if len(parts) != 3 {
		return out, errors.New("--pwm needs three comma-separated levels")
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 0, 8)
		if err != nil {
			return out, fmt.Errorf("--pwm level %d: %w", i+1, err)
		}
		out[i] = uint8(v)
	}
	return out, nil
}
