// Package interactive provides the interactive command-line interface
// for roamd.
package interactive

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/roam-net/roam-go/internal/simradio"
	"github.com/roam-net/roam-go/pkg/credentials"
	"github.com/roam-net/roam-go/pkg/manager"
)

// Shell handles interactive mode for roamd.
type Shell struct {
	mgr    *manager.Manager
	store  credentials.Store
	driver *simradio.Driver
	rl     *readline.Instance
}

// New creates a new interactive shell.
func New(mgr *manager.Manager, store credentials.Store, driver *simradio.Driver) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "roam> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Shell{
		mgr:    mgr,
		store:  store,
		driver: driver,
		rl:     rl,
	}, nil
}

// Run starts the interactive command loop. It returns when the user
// exits.
func (s *Shell) Run() {
	defer s.rl.Close()

	s.printHelp()

	for {
		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "status":
			s.cmdStatus()

		case "scan":
			s.cmdScan()

		case "station":
			s.cmdStation()

		case "provision", "prov":
			s.cmdProvision()

		case "stop":
			s.cmdStop()

		case "creds", "list":
			s.cmdCreds()

		case "add":
			s.cmdAdd(args)

		case "remove", "rm":
			s.cmdRemove(args)

		case "default":
			s.cmdDefault(args)

		case "try":
			s.cmdTry(args)

		case "drop":
			s.cmdDrop()

		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return

		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
Roam Commands:
  Connectivity:
    status             - Show connectivity status
    scan               - Show the most recent scan results
    station            - Switch to station mode
    provision          - Switch to provisioning mode
    stop               - Stop the active mode
    drop               - Simulate losing the current connection

  Credentials:
    creds              - List stored networks
    add <ssid> <pass>  - Store a network (use "" for open networks)
    remove <index>     - Remove a stored network
    default <index>    - Make a stored network the default
    try <ssid> <pass>  - Verify credentials with a live connect probe

  General:
    help               - Show this help
    quit               - Exit`)
}

// cmdStatus shows the connectivity status.
func (s *Shell) cmdStatus() {
	out := s.rl.Stdout()

	fmt.Fprintln(out, "\nConnectivity Status")
	fmt.Fprintln(out, "-------------------------------------------")
	fmt.Fprintf(out, "  Mode:       %s\n", s.mgr.Mode())
	fmt.Fprintf(out, "  MAC:        %s\n", s.mgr.MACAddress())

	if s.mgr.IsProvisioningActive() {
		fmt.Fprintf(out, "  AP SSID:    %s\n", s.mgr.ProvisioningSSID())
		fmt.Fprintf(out, "  Setup URL:  %s\n", s.mgr.WebURL())
		if ap := s.mgr.Provisioning(); ap != nil {
			fmt.Fprintf(out, "  Clients:    %d\n", ap.ClientCount())
		}
	} else if s.mgr.IsConnected() {
		fmt.Fprintf(out, "  Connected:  yes\n")
		fmt.Fprintf(out, "  SSID:       %s\n", s.mgr.SSID())
		fmt.Fprintf(out, "  IP:         %s\n", s.mgr.IPAddress())
		fmt.Fprintf(out, "  RSSI:       %d dBm\n", s.mgr.RSSI())
		fmt.Fprintf(out, "  Channel:    %d\n", s.mgr.Channel())
	} else {
		fmt.Fprintf(out, "  Connected:  no\n")
	}
	fmt.Fprintln(out)
}

// cmdScan shows the most recent scan results.
func (s *Shell) cmdScan() {
	records := s.mgr.LastScan()
	if len(records) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "No scan results yet")
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "\nVisible Networks (%d):\n", len(records))
	fmt.Fprintln(s.rl.Stdout(), "-------------------------------------------")
	for _, rec := range records {
		fmt.Fprintf(s.rl.Stdout(), "  %-24s %4d dBm  ch %-3d %s\n",
			rec.SSID, rec.RSSI, rec.Channel, rec.Auth)
	}
	fmt.Fprintln(s.rl.Stdout())
}

// cmdStation switches to station mode.
func (s *Shell) cmdStation() {
	if err := s.mgr.StartStation(); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Failed to start station mode: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "Station mode active")
}

// cmdProvision switches to provisioning mode.
func (s *Shell) cmdProvision() {
	if err := s.mgr.StartProvisioning(); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Failed to start provisioning: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "Provisioning active: join %q and open %s\n",
		s.mgr.ProvisioningSSID(), s.mgr.WebURL())
}

// cmdStop stops the active mode.
func (s *Shell) cmdStop() {
	s.mgr.Shutdown()
	fmt.Fprintln(s.rl.Stdout(), "Stopped")
}

// cmdCreds lists the stored networks.
func (s *Shell) cmdCreds() {
	creds, err := s.store.List()
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Failed to list credentials: %v\n", err)
		return
	}
	if len(creds) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "No stored networks")
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "\nStored Networks (%d):\n", len(creds))
	fmt.Fprintln(s.rl.Stdout(), "-------------------------------------------")
	for i, c := range creds {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		fmt.Fprintf(s.rl.Stdout(), "  %s [%d] %s\n", marker, i, c.SSID)
	}
	fmt.Fprintln(s.rl.Stdout())
}

// cmdAdd stores a network.
func (s *Shell) cmdAdd(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: add <ssid> [password]")
		return
	}

	password := ""
	if len(args) > 1 {
		password = strings.Trim(args[1], "\"'")
	}

	if err := s.store.Add(args[0], password); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Failed to add network: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "OK")
}

// cmdRemove removes a stored network by index.
func (s *Shell) cmdRemove(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: remove <index>")
		fmt.Fprintln(s.rl.Stdout(), "  Use 'creds' to list indices")
		return
	}

	index, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Invalid index: %v\n", err)
		return
	}

	if err := s.store.Remove(index); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Failed to remove network: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "Removed")
}

// cmdDefault makes a stored network the default.
func (s *Shell) cmdDefault(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: default <index>")
		return
	}

	index, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Invalid index: %v\n", err)
		return
	}

	if err := s.store.SetDefault(index); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Failed to set default: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "OK")
}

// cmdTry verifies credentials with a live connect probe. Only
// available while provisioning is active.
func (s *Shell) cmdTry(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: try <ssid> [password]")
		return
	}

	ap := s.mgr.Provisioning()
	if ap == nil {
		fmt.Fprintln(s.rl.Stdout(), "Provisioning is not active (use 'provision' first)")
		return
	}

	password := ""
	if len(args) > 1 {
		password = strings.Trim(args[1], "\"'")
	}

	fmt.Fprintf(s.rl.Stdout(), "Verifying %q...\n", args[0])
	start := time.Now()
	err := ap.Verifier().TryConnect(context.Background(), args[0], password)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Verification failed after %s: %v\n",
			time.Since(start).Round(time.Millisecond), err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "Verified in %s\n", time.Since(start).Round(time.Millisecond))
}

// cmdDrop simulates losing the current connection.
func (s *Shell) cmdDrop() {
	s.driver.SimulateDrop()
	fmt.Fprintln(s.rl.Stdout(), "Connection dropped")
}
