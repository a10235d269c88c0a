// coopdoor drives a motorized chicken coop door: it opens after sunrise,
// closes after sunset, stops the motor at the limit switches and accepts
// manual control from buttons and remote commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"coopdoor/clock"
	"coopdoor/command"
	"coopdoor/door"
	"coopdoor/indicator"
	"coopdoor/logging"
	"coopdoor/mode"
	"coopdoor/monitor"
	"coopdoor/motor"
	"coopdoor/mqtt"
	"coopdoor/notify"
	"coopdoor/schedule"
	"coopdoor/sensor"
	"coopdoor/telemetry"
)

var myBuild = "dev"

// manualTick is the blink cadence in manual mode.
const manualTick = time.Second

// App holds the application state and dependencies.
type App struct {
	cfg    *Config
	logger *zap.Logger
	clock  clock.Clock

	motor     motor.Driver
	indicator indicator.Indicator
	inputs    *sensor.Inputs

	mqtt      *mqtt.Client
	telemetry *telemetry.Client
	notifier  *notify.Notifier

	door     *door.Actor
	dispatch *command.Dispatcher
	modes    *mode.Controller
	buttons  atomic.Pointer[mode.Controller]

	// closers run in reverse order on shutdown.
	closers []closer
}

type closer struct {
	name string
	fn   func() error
}

func main() {
	cfgfile := flag.String("cfg", "coopdoor.yaml", "Config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *cfgfile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run loads the configuration, starts every loop and blocks until ctx is
// cancelled or a loop fails.
func run(ctx context.Context, cfgfile string) error {
	logger := logging.Default()

	cfg, err := LoadConfig(cfgfile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger = logging.New(cfg.Logging, myBuild)
	defer logger.Sync()
	logger.Info("starting coopdoor", zap.String("config", cfgfile), zap.String("client_id", cfg.ClientID))

	app := &App{cfg: cfg, logger: logger, clock: clock.Real{}}
	defer app.close()

	if err := app.init(ctx); err != nil {
		return err
	}
	return app.serve(ctx)
}

func (app *App) init(ctx context.Context) error {
	cfg := app.cfg
	var err error

	app.motor, err = motor.New(cfg.Motor)
	if err != nil {
		return fmt.Errorf("init motor: %w", err)
	}
	app.onClose("motor", app.motor.Release)

	app.indicator, err = indicator.New(cfg.Indicator)
	if err != nil {
		return fmt.Errorf("init indicator: %w", err)
	}
	app.onClose("indicator", app.indicator.Release)

	app.inputs, err = sensor.New(cfg.Sensor, sensor.Handlers{OnButton: app.onButton}, app.logger.Named("sensor"))
	if err != nil {
		return fmt.Errorf("init sensors: %w", err)
	}
	app.onClose("sensors", app.inputs.Release)

	app.mqtt, err = mqtt.New(cfg.MQTT, cfg.ClientID, mqtt.Handlers{
		OnCommand: func(line string) { app.dispatch.Handle(ctx, "mqtt", line) },
	}, app.logger.Named("mqtt"))
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}

	var sinks []notify.Sink
	if app.mqtt.IsEnabled() {
		sinks = append(sinks, notify.NewMQTTSink(app.mqtt, cfg.ClientID))
	}

	app.telemetry, err = telemetry.Connect(ctx, cfg.InfluxDB, cfg.ClientID, app.logger.Named("telemetry"))
	switch {
	case errors.Is(err, telemetry.ErrDisabled):
		app.logger.Info("telemetry disabled (no influxdb url configured)")
	case err != nil:
		app.logger.Warn("telemetry unavailable", zap.Error(err))
	default:
		sinks = append(sinks, notify.NewTelemetrySink(app.telemetry))
		app.onClose("telemetry", app.telemetry.Close)
	}

	app.notifier = notify.New(app.logger.Named("notify"), sinks...)

	app.door = door.NewActor(door.Hardware{
		Motor:  app.motor,
		LED:    app.indicator,
		Limits: app.inputs,
	}, app.clock, app.notifier, app.logger.Named("door"))

	app.dispatch = command.NewDispatcher(app.door, app.logger.Named("command"))
	app.modes = mode.NewController(app.door, app.clock, manualTick, cfg.Door.ManualMax, app.logger.Named("mode"))
	app.buttons.Store(app.modes)
	return nil
}

// serve runs every loop until ctx is cancelled. The notifier outlives the
// other loops so the final door events are still delivered.
func (app *App) serve(ctx context.Context) error {
	cfg := app.cfg
	logger := app.logger

	loops := []func(context.Context) error{
		app.door.Run,
		app.inputs.Watch,
		app.modes.Run,
		monitor.NewInput(app.door, app.inputs, app.clock, cfg.Door.PollInterval, cfg.Door.SettleDelay, logger.Named("input")).Run,
		monitor.NewWatchdog(app.door, app.clock, cfg.Door.PollInterval, cfg.Door.MaxRun, logger.Named("watchdog")).Run,
	}

	sun := schedule.NewLocation(cfg.Location.Latitude, cfg.Location.Longitude, cfg.TimeLocation())
	loops = append(loops, schedule.NewMonitor(app.door, sun, app.clock, cfg.Schedule, logger.Named("schedule")).Run)

	if cfg.Command.Listen != "" {
		srv := command.NewServer(cfg.Command.Listen, cfg.Command.MaxConns, app.dispatch, logger.Named("server"))
		if err := srv.Listen(); err != nil {
			return err
		}
		loops = append(loops, srv.Run)
	}
	if cfg.Command.Pipe != "" {
		pipe, err := command.NewPipe(cfg.Command.Pipe, app.dispatch, logger.Named("pipe"))
		if err != nil {
			return err
		}
		app.onClose("command pipe", pipe.Close)
		loops = append(loops, pipe.Run)
	}
	if cfg.Command.Serial.Device != "" {
		serial, err := command.NewSerial(cfg.Command.Serial, app.dispatch, logger.Named("serial"))
		if err != nil {
			return err
		}
		loops = append(loops, serial.Run)
	}

	notifyCtx, stopNotify := context.WithCancel(context.Background())
	notifyDone := make(chan struct{})
	go func() {
		app.notifier.Run(notifyCtx)
		close(notifyDone)
	}()
	defer func() {
		stopNotify()
		<-notifyDone
	}()

	g, gctx := errgroup.WithContext(ctx)
	for _, loop := range loops {
		loop := loop
		g.Go(func() error { return loop(gctx) })
	}

	if err := app.mqtt.Connect(); err != nil {
		logger.Warn("mqtt connect failed", zap.Error(err))
	}
	app.onClose("mqtt", func() error {
		app.mqtt.Disconnect()
		return nil
	})

	logger.Info("coopdoor running")
	err := g.Wait()
	logger.Info("shutting down")
	return err
}

// onButton forwards button events once the mode controller exists.
func (app *App) onButton(b sensor.Button, pressed bool) {
	if m := app.buttons.Load(); m != nil {
		m.OnButton(b, pressed)
	}
}

func (app *App) onClose(name string, fn func() error) {
	app.closers = append(app.closers, closer{name, fn})
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		c := app.closers[i]
		if err := c.fn(); err != nil {
			app.logger.Error("error closing "+c.name, zap.Error(err))
		}
	}
	app.logger.Info("shutdown complete")
}
