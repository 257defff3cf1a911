package provisioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/roam-net/roam-go/pkg/eventbits"
	"github.com/roam-net/roam-go/pkg/log"
	"github.com/roam-net/roam-go/pkg/radio"
)

// Verifier errors.
var (
	ErrVerifyInProgress = errors.New("verification already in progress")
	ErrConnectFailed    = errors.New("could not connect to network")
)

// DefaultVerifyTimeout bounds one credential verification.
const DefaultVerifyTimeout = 10 * time.Second

// Verifier flags.
const (
	bitVerifyConnected uint32 = 1 << 0
	bitVerifyFailed    uint32 = 1 << 1
)

// Verifier tests candidate credentials with a real connect attempt
// before they are persisted. It shares the issue-connect primitive
// with the station machine but completes by blocking the caller
// instead of through callbacks.
type Verifier struct {
	driver  radio.Driver
	logger  *slog.Logger
	events  log.Logger
	timeout time.Duration

	bits *eventbits.Bits

	// verifying suppresses the periodic provisioning scan while a
	// verification attempt is outstanding.
	verifying atomic.Bool
}

// NewVerifier creates a verifier. A non-positive timeout selects
// DefaultVerifyTimeout.
func NewVerifier(driver radio.Driver, timeout time.Duration, logger *slog.Logger, events log.Logger) *Verifier {
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Verifier{
		driver:  driver,
		logger:  logger,
		events:  log.OrNoop(events),
		timeout: timeout,
		bits:    eventbits.New(),
	}
}

// IsVerifying reports whether a verification attempt is outstanding.
func (v *Verifier) IsVerifying() bool {
	return v.verifying.Load()
}

// TryConnect validates the SSID, issues a direct connect with the
// supplied credentials and blocks until the attempt succeeds, fails
// or times out. On success the probe association is dropped again so
// the device doesn't stay attached before the station machine takes
// over; persisting the credential is the caller's job.
//
// Validation failures return before any driver call. A second
// concurrent call returns ErrVerifyInProgress.
func (v *Verifier) TryConnect(ctx context.Context, ssid, password string) error {
	if err := radio.ValidateSSID(ssid); err != nil {
		return err
	}
	if !v.verifying.CompareAndSwap(false, true) {
		return ErrVerifyInProgress
	}
	defer v.verifying.Store(false)

	session := uuid.NewString()
	v.logger.Info("verifying credentials", "session", session, "ssid", ssid)
	v.events.Log(log.ConnectAttempt(log.ComponentProvisioning, ssid, 0))

	// Abort any scan in flight; the scan ticker stays quiet while
	// verifying is set.
	if err := v.driver.ScanStop(); err != nil {
		v.logger.Debug("scan stop failed", "error", err)
	}

	v.bits.Clear(bitVerifyConnected | bitVerifyFailed)
	unsubscribe := v.driver.Subscribe(func(ev radio.Event) {
		switch ev.Type {
		case radio.EventStationConnected, radio.EventGotAddress:
			v.bits.Set(bitVerifyConnected)
		case radio.EventStationDisconnected:
			v.bits.Set(bitVerifyFailed)
		}
	})
	defer unsubscribe()

	if err := radio.IssueConnect(v.driver, radio.StationConfig{SSID: ssid, Password: password}); err != nil {
		return fmt.Errorf("issue connect: %w", err)
	}

	timeout := v.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}

	got, ok := v.bits.Wait(bitVerifyConnected|bitVerifyFailed, true, timeout)
	if !ok || got&bitVerifyConnected == 0 {
		v.logger.Warn("verification failed", "session", session, "ssid", ssid)
		v.events.Log(log.ErrorEvent(log.ComponentProvisioning, ErrConnectFailed))
		return ErrConnectFailed
	}

	v.logger.Info("verification succeeded", "session", session, "ssid", ssid)
	if err := v.driver.Disconnect(); err != nil {
		v.logger.Debug("probe disconnect failed", "error", err)
	}
	return nil
}
