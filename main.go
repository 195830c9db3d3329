// Command traffic-pulse watches a TCP port for bursts of traffic and drives
// a display agent: once the accumulated payload volume crosses a threshold
// an "activity started" edge fires, and after a quiet period an "activity
// stopped" edge follows. The original use is lighting an LED strip on a
// storage node whenever its service is busy.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/banshee-data/traffic.pulse/internal/capture"
	"github.com/banshee-data/traffic.pulse/internal/config"
	"github.com/banshee-data/traffic.pulse/internal/detect"
	"github.com/banshee-data/traffic.pulse/internal/monitoring"
	"github.com/banshee-data/traffic.pulse/internal/sink"
	"github.com/banshee-data/traffic.pulse/internal/stats"
	"github.com/banshee-data/traffic.pulse/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to JSON config file")
	port       = flag.Int("port", 0, "TCP port to monitor")
	host       = flag.String("host", "", "Restrict capture to one host")
	iface      = flag.String("interface", "", "Network interface to capture on")
	threshold  = flag.String("threshold", "", "Byte threshold before the start edge fires (e.g. 1KiB, 2MB)")
	timeout    = flag.Duration("timeout", 0, "Inactivity period before the stop edge fires")
	minPayload = flag.String("min-payload", "", "Discard packets with payloads below this size")
	wsURL      = flag.String("ws-url", "", "Websocket URL of the display agent")
	pcapFile   = flag.String("pcap", "", "Replay a PCAP file instead of capturing live")
	verbose    = flag.Bool("verbose", false, "Trace every observed packet and state change")
)

// flagOverrides carries the flag values that take precedence over the config
// file. Zero values mean "not set".
type flagOverrides struct {
	port       int
	host       string
	iface      string
	threshold  string
	timeout    time.Duration
	minPayload string
	wsURL      string
}

// resolveSettings layers defaults, then the config file, then flags.
func resolveSettings(configPath string, o flagOverrides) (config.Settings, error) {
	s := config.DefaultSettings()

	if configPath != "" {
		fileCfg, err := config.Load(configPath)
		if err != nil {
			return s, err
		}
		if err := fileCfg.Apply(&s); err != nil {
			return s, err
		}
	}

	if o.port != 0 {
		s.Port = o.port
	}
	if o.host != "" {
		s.Host = o.host
	}
	if o.iface != "" {
		s.Interface = o.iface
	}
	if o.threshold != "" {
		v, err := config.ParseSize(o.threshold)
		if err != nil {
			return s, err
		}
		s.ThresholdBytes = v
	}
	if o.timeout != 0 {
		s.InactivityTimeout = o.timeout
	}
	if o.minPayload != "" {
		v, err := config.ParseSize(o.minPayload)
		if err != nil {
			return s, err
		}
		s.MinPayloadBytes = v
	}
	if o.wsURL != "" {
		s.WebsocketURL = o.wsURL
	}

	return s, s.Validate()
}

func main() {
	flag.Parse()

	log.Printf("traffic-pulse %s (%s)", version.Version, version.GitSHA)

	settings, err := resolveSettings(*configPath, flagOverrides{
		port:       *port,
		host:       *host,
		iface:      *iface,
		threshold:  *threshold,
		timeout:    *timeout,
		minPayload: *minPayload,
		wsURL:      *wsURL,
	})
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	sinks := sink.Multi{sink.LogSink{}}
	if settings.WebsocketURL != "" {
		ws := sink.NewWebsocketSink(sink.WebsocketSinkConfig{URL: settings.WebsocketURL})
		defer ws.Close()
		sinks = append(sinks, ws)
	}

	var tracef func(format string, v ...interface{})
	if *verbose {
		tracef = monitoring.Logf
	}

	detector, err := detect.New(detect.Config{
		ThresholdBytes:    settings.ThresholdBytes,
		InactivityTimeout: settings.InactivityTimeout,
		MinPayloadBytes:   settings.MinPayloadBytes,
		Sink:              sinks,
		Logf:              tracef,
	})
	if err != nil {
		log.Fatalf("failed to create detector: %v", err)
	}
	defer detector.Close()

	trafficStats := stats.NewTrafficStats()
	observer, err := detect.NewObserver(detect.ObserverConfig{
		Detector: detector,
		Stats:    trafficStats,
		Logf:     tracef,
	})
	if err != nil {
		log.Fatalf("failed to create observer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	captureCfg := capture.Config{
		Interface: settings.Interface,
		SessionID: uuid.NewString()[:8],
		Filter: capture.FilterConfig{
			Port:     settings.Port,
			Host:     settings.Host,
			PushOnly: settings.PushOnly,
		},
	}

	if !capture.Available() {
		log.Print("Warning: built without pcap support; capture will fail (rebuild with -tags=pcap)")
	}

	log.Printf("Monitoring port %d: start edge after %s, stop edge after %v of inactivity (session %s)",
		settings.Port, humanize.IBytes(settings.ThresholdBytes), settings.InactivityTimeout, captureCfg.SessionID)

	var wg sync.WaitGroup

	// run the capture routine feeding the observer
	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		if *pcapFile != "" {
			err = capture.ReplayFile(ctx, *pcapFile, captureCfg, observer)
		} else {
			err = capture.Run(ctx, captureCfg, observer)
		}
		if err != nil && err != context.Canceled {
			log.Printf("capture error: %v", err)
		}
		// Capture finished or failed: end the session.
		stop()
	}()

	// run the periodic traffic stats reporter
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(settings.StatsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				trafficStats.LogStats()
			}
		}
	}()

	wg.Wait()
	trafficStats.LogStats()
	log.Print("Shutdown complete")
}
