// Command rf433-sensor decodes 433MHz weather sensor transmissions and
// publishes the readings to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/rf433-sensor/internal/config"
	"github.com/sweeney/rf433-sensor/internal/gpio"
	"github.com/sweeney/rf433-sensor/internal/log"
	"github.com/sweeney/rf433-sensor/internal/mqtt"
	"github.com/sweeney/rf433-sensor/internal/protocol"
	"github.com/sweeney/rf433-sensor/internal/pulse"
	"github.com/sweeney/rf433-sensor/internal/report"
	"github.com/sweeney/rf433-sensor/internal/rflink"
	"github.com/sweeney/rf433-sensor/internal/status"
	"github.com/sweeney/rf433-sensor/internal/web"
)

// captureSource delivers captures until ctx is cancelled or it runs dry.
type captureSource interface {
	Run(ctx context.Context, out chan<- *pulse.Capture) error
}

// dropCounter is implemented by sources that discard captures when the loop
// falls behind.
type dropCounter interface {
	Dropped() uint64
}

// outboxStats is implemented by publishers that hold messages while offline.
type outboxStats interface {
	Held() (held int, dropped uint64)
}

var (
	_ dropCounter = (*gpio.EdgeSource)(nil)
	_ outboxStats = (*mqtt.RealPublisher)(nil)
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	flag.String("source", "", "capture source: gpio, serial or replay")
	flag.Int("pin", gpio.DefaultPin, "BCM pin of the receiver data output")
	flag.String("serial", "", "serial device of an RFLink receiver (implies -source serial)")
	flag.String("replay", "", "file of RFLink debug lines to decode (implies -source replay)")
	flag.String("broker", "", "MQTT broker address")
	flag.String("encoding", "", "reading payload encoding: json or msgpack")
	flag.String("http", "", "HTTP status address (empty to disable)")
	flag.Duration("heartbeat", 0, "heartbeat interval (0 to disable)")
	flag.Duration("suppress", 0, "window in which a repeated reading is suppressed")
	lines := flag.Bool("lines", false, "print RFLink-style reading lines to stdout")
	flag.Bool("debug", false, "debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	if err := applyFlags(cfg, flag.CommandLine); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	if err := log.Init(cfg.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var lineOut io.Writer
	if *lines {
		lineOut = os.Stdout
	}
	if err := run(cfg, lineOut); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// applyFlags copies the flags set on the command line over cfg, so the file
// supplies defaults and the command line wins.
func applyFlags(cfg *config.Config, fs *flag.FlagSet) error {
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.(flag.Getter).Get()
		switch f.Name {
		case "source":
			cfg.Source = v.(string)
		case "pin":
			cfg.GPIO.Pin = v.(int)
		case "serial":
			cfg.Source = config.SourceSerial
			cfg.Serial.Device = v.(string)
		case "replay":
			cfg.Source = config.SourceReplay
			cfg.Replay.File = v.(string)
		case "broker":
			cfg.MQTT.Broker = v.(string)
		case "encoding":
			cfg.MQTT.Encoding = v.(string)
		case "http":
			cfg.HTTPAddr = v.(string)
		case "heartbeat":
			cfg.Heartbeat = v.(time.Duration)
		case "suppress":
			cfg.Decode.SuppressWindow = v.(time.Duration)
		case "debug":
			cfg.Debug = v.(bool)
		}
	})
	return cfg.Validate()
}

func run(cfg *config.Config, lineOut io.Writer) error {
	decoders, err := selectDecoders(cfg.Decode.Protocols)
	if err != nil {
		return err
	}
	src, closeSrc, err := openSource(cfg)
	if err != nil {
		return fmt.Errorf("init source: %w", err)
	}
	defer closeSrc()

	publisher := mqtt.NewRealPublisher(mqtt.Options{
		Broker:     cfg.MQTT.Broker,
		ClientID:   cfg.MQTT.ClientID,
		Encoding:   mqtt.Encoding(cfg.MQTT.Encoding),
		OutboxSize: cfg.MQTT.BufferSize,
	})
	defer publisher.Close()

	dispatcher := protocol.NewDispatcher(protocol.NewSuppressor(cfg.Decode.SuppressWindow), decoders...)
	var names []string
	for _, d := range dispatcher.Decoders() {
		names = append(names, d.Name())
	}
	tracker := status.NewTracker(time.Now(), status.Config{
		Source:           cfg.Source,
		Broker:           cfg.MQTT.Broker,
		Encoding:         cfg.MQTT.Encoding,
		HTTPAddr:         cfg.HTTPAddr,
		HeartbeatMs:      cfg.Heartbeat.Milliseconds(),
		SuppressWindowMs: cfg.Decode.SuppressWindow.Milliseconds(),
		Protocols:        names,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Warnf("failed to publish startup event: %v", err)
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("http status server listening on %s", cfg.HTTPAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	captures := make(chan *pulse.Capture, 16)
	srcDone := make(chan error, 1)
	go func() {
		srcDone <- src.Run(ctx, captures)
		close(captures)
	}()

	var heartbeat <-chan time.Time
	if cfg.Heartbeat > 0 {
		ticker := time.NewTicker(cfg.Heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Infof("started: source=%s decoders=%v broker=%s suppress=%v",
		cfg.Source, names, cfg.MQTT.Broker, cfg.Decode.SuppressWindow)

	l := &loop{
		dispatcher: dispatcher,
		filter:     pulse.NewRepeatFilter(repeatWindow(cfg)),
		publisher:  publisher,
		mqttStatus: publisher,
		outbox:     publisher,
		tracker:    tracker,
		now:        time.Now,
	}
	if d, ok := src.(dropCounter); ok {
		l.dropped = d
	}
	if lineOut != nil {
		l.lines = report.NewLineWriter(lineOut)
	}
	return l.run(captures, srcDone, heartbeat, sigCh)
}

// repeatWindow applies the capture repeat filter to live GPIO captures only.
// Receivers on the serial link filter their own repeats, and a replayed log
// arrives faster than real time.
func repeatWindow(cfg *config.Config) time.Duration {
	if cfg.Source != config.SourceGPIO {
		return 0
	}
	return cfg.GPIO.RepeatWindow
}

// selectDecoders returns the decoders named, in dispatch order. No names
// selects all of them.
func selectDecoders(names []string) ([]protocol.Decoder, error) {
	all := protocol.Default()
	if len(names) == 0 {
		return all, nil
	}
	var out []protocol.Decoder
	for _, name := range names {
		found := false
		for _, d := range all {
			if d.Name() == name {
				out = append(out, d)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown protocol %q", name)
		}
	}
	return out, nil
}

func openSource(cfg *config.Config) (captureSource, func(), error) {
	switch cfg.Source {
	case config.SourceGPIO:
		src, err := gpio.NewEdgeSource(cfg.GPIO.Chip, cfg.GPIO.Pin, gpio.FramerConfig{
			SyncGap:   cfg.GPIO.SyncGap,
			MinPulses: cfg.GPIO.MinPulses,
			MaxPulses: cfg.GPIO.MaxPulses,
		})
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	case config.SourceSerial:
		return rflink.NewSerialSource(cfg.Serial.Device, cfg.Serial.Baud), func() {}, nil
	case config.SourceReplay:
		f, err := os.Open(cfg.Replay.File)
		if err != nil {
			return nil, nil, fmt.Errorf("open replay file: %w", err)
		}
		return rflink.NewReaderSource(f), func() { f.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown source %q", cfg.Source)
}

// loop owns the decoding state. All of its methods run on one goroutine.
type loop struct {
	dispatcher *protocol.Dispatcher
	filter     *pulse.RepeatFilter
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	outbox     outboxStats
	dropped    dropCounter
	tracker    *status.Tracker
	lines      *report.LineWriter
	now        func() time.Time
}

// run handles captures until a signal arrives or the source ends. A source
// that ends cleanly (a finished replay) shuts down like a signal; a failing
// source is returned as an error after the shutdown event.
func (l *loop) run(captures <-chan *pulse.Capture, srcDone <-chan error, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Infof("received %v, shutting down", s)
			l.shutdown(signalName(s))
			return nil

		case c, ok := <-captures:
			if !ok {
				err := <-srcDone
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Errorf("capture source failed: %v", err)
					l.shutdown("SOURCE_ERROR")
					return fmt.Errorf("capture source: %w", err)
				}
				log.Infof("capture source finished")
				l.shutdown("SOURCE_EOF")
				return nil
			}
			l.handle(c)

		case <-heartbeat:
			l.heartbeat()
		}
	}
}

func (l *loop) handle(c *pulse.Capture) {
	t := l.now()
	l.tracker.RecordCapture()
	if !l.filter.Allow(c, t) {
		l.tracker.RecordFiltered()
		return
	}

	rec := report.NewRecord(t)
	out, err := l.dispatcher.Dispatch(c, rec, t)
	l.filter.Done(c, t)
	if err != nil {
		l.tracker.RecordUnrecognized()
		log.Debugw("capture not recognized", "pulses", len(c.Pulses), "reason", err)
		return
	}
	l.tracker.RecordOutcome(out, t)

	r := out.Reading
	if out.Result == protocol.Suppressed {
		log.Debugw("repeat suppressed", "protocol", r.Protocol, "id", r.ID)
		return
	}

	log.Infow("reading",
		"protocol", r.Protocol,
		"id", r.ID,
		"temperature", r.Temperature.String(),
		"humidity", r.Humidity,
		"battery_low", r.BatteryLow)
	if l.lines != nil {
		if err := l.lines.Write(r); err != nil {
			log.Warnf("%v", err)
		}
	}
	if err := l.publisher.Publish(rec); err != nil {
		l.tracker.RecordPublishError()
		log.Errorf("publish error: %v", err)
	}
}

func (l *loop) heartbeat() {
	l.refreshTracker()
	if net := readNetworkInfo(); net != nil {
		l.tracker.SetNetwork(net)
	}
	snap := l.tracker.Snapshot()
	log.Infof("heartbeat: uptime=%v captures=%d sensors=%d source_dropped=%d mqtt_held=%d",
		snap.Uptime().Truncate(time.Second), snap.Counts.Captures, len(snap.Sensors),
		snap.Counts.SourceDropped, snap.MQTTHeld)

	event := mqtt.SystemEvent{
		Timestamp:  l.now(),
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Errorf("heartbeat publish error: %v", err)
	}
}

func (l *loop) shutdown(reason string) {
	l.refreshTracker()
	event := mqtt.SystemEvent{
		Timestamp:  l.now(),
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(l.tracker.Snapshot(), "SHUTDOWN", reason),
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Errorf("failed to publish shutdown event: %v", err)
	} else {
		log.Infof("published shutdown event")
	}
}

func (l *loop) refreshTracker() {
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
	if l.outbox != nil {
		l.tracker.SetMQTTOutbox(l.outbox.Held())
	}
	if l.dropped != nil {
		l.tracker.SetSourceDropped(l.dropped.Dropped())
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
