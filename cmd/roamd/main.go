// Command roamd runs the connectivity manager against a simulated
// radio environment.
//
// This command demonstrates the full connectivity stack:
//   - CLI argument parsing
//   - Configuration file support
//   - Credential persistence
//   - Station mode with scan ranking and reconnect policy
//   - Provisioning mode with captive-portal DNS and mDNS announcement
//   - Binary event capture
//
// Usage:
//
//	roamd [flags]
//
// Flags:
//
//	-config string     Configuration file path (YAML)
//	-creds string      Credential store path (default "roam-credentials.json")
//	-event-log string  Event capture file path (.rlog)
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-provision         Start in provisioning mode instead of station mode
//	-interactive       Enable the interactive shell
//
// Examples:
//
//	# Station mode with a stored network
//	roamd -creds /var/lib/roam/credentials.json
//
//	# Provisioning mode with an interactive shell and event capture
//	roamd -provision -interactive -event-log session.rlog
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/roam-net/roam-go/cmd/roamd/interactive"
	"github.com/roam-net/roam-go/internal/simradio"
	"github.com/roam-net/roam-go/pkg/credentials"
	"github.com/roam-net/roam-go/pkg/log"
	"github.com/roam-net/roam-go/pkg/manager"
	"github.com/roam-net/roam-go/pkg/radio"
)

var (
	configFile   string
	credsFile    string
	eventLogFile string
	logLevel     string
	provision    bool
	interactiveF bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&credsFile, "creds", "roam-credentials.json", "Credential store path")
	flag.StringVar(&eventLogFile, "event-log", "", "Event capture file path (.rlog)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&provision, "provision", false, "Start in provisioning mode")
	flag.BoolVar(&interactiveF, "interactive", false, "Enable the interactive shell")
}

func main() {
	flag.Parse()

	logger := setupLogging(logLevel)

	var config manager.Config
	if configFile != "" {
		var err error
		config, err = manager.LoadConfig(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
	}

	var eventLogger log.Logger
	if eventLogFile != "" {
		fl, err := log.NewFileLogger(eventLogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open event log: %v\n", err)
			os.Exit(1)
		}
		defer fl.Close()
		eventLogger = fl
	}

	store := credentials.NewFileStore(credsFile)

	driver := simradio.New()
	defer driver.Close()
	driver.SetEnvironment(defaultEnvironment())

	config.Driver = driver
	config.Store = store
	config.Logger = logger
	config.EventLogger = eventLogger

	mgr, err := manager.New(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create manager: %v\n", err)
		os.Exit(1)
	}

	mgr.SetEventCallback(func(ev manager.Event) {
		if ev.SSID != "" {
			logger.Info("connectivity event", "type", ev.Type.String(), "ssid", ev.SSID)
		} else {
			logger.Info("connectivity event", "type", ev.Type.String())
		}
	})

	if err := mgr.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "initialize: %v\n", err)
		os.Exit(1)
	}
	logger.Info("roamd started", "mac", mgr.MACAddress())

	if provision {
		err = mgr.StartProvisioning()
	} else {
		err = mgr.StartStation()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		os.Exit(1)
	}

	if interactiveF {
		shell, err := interactive.New(mgr, store, driver)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create shell: %v\n", err)
			os.Exit(1)
		}
		shell.Run()
	} else {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal", "signal", sig.String())
	}

	logger.Info("shutting down")
	mgr.Shutdown()
}

func setupLogging(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}

// defaultEnvironment is the simulated radio neighbourhood.
func defaultEnvironment() []simradio.AP {
	return []simradio.AP{
		{
			Record: radio.APRecord{
				SSID:    "HomeNet",
				BSSID:   mustMAC("aa:bb:cc:00:00:01"),
				RSSI:    -45,
				Channel: 6,
				Auth:    radio.AuthWPA2PSK,
			},
			Password: "homenet-pass",
		},
		{
			Record: radio.APRecord{
				SSID:    "CoffeeShop",
				BSSID:   mustMAC("aa:bb:cc:00:00:02"),
				RSSI:    -72,
				Channel: 11,
				Auth:    radio.AuthOpen,
			},
		},
		{
			Record: radio.APRecord{
				SSID:    "Neighbour5G",
				BSSID:   mustMAC("aa:bb:cc:00:00:03"),
				RSSI:    -80,
				Channel: 36,
				Auth:    radio.AuthWPA3PSK,
			},
			Password: "secret-neighbour",
		},
	}
}

func mustMAC(s string) net.HardwareAddr {
	mac, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return mac
}
