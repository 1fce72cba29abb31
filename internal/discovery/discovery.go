// Package discovery advertises the engine's control socket over mDNS
// so a LAN-side GUI can find a running headless engine without a
// hardcoded address, exactly as src/dns_sd.go advertises the AGW/KISS
// network TNC with the same github.com/brutella/dnssd library.
package discovery

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

// ServiceType is the mDNS service type the control socket advertises
// itself under.
const ServiceType = "_freetv-ctl._tcp"

// Advertisement owns a running dnssd responder.
type Advertisement struct {
	responder dnssd.Responder
	cancel    context.CancelFunc
	log       *log.Logger
}

// Start announces name on port and begins responding to mDNS queries in
// the background. Callers stop advertising with Advertisement.Stop.
func Start(name string, port int, logger *log.Logger) (*Advertisement, error) {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.With("component", "discovery")

	if name == "" {
		name = "freetvd"
	}

	cfg := dnssd.Config{
		Name: name,
		Type: ServiceType,
		Port: port,
	}

	svc, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("discovery: creating service: %w", err)
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("discovery: creating responder: %w", err)
	}

	if _, err := responder.Add(svc); err != nil {
		return nil, fmt.Errorf("discovery: adding service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Advertisement{responder: responder, cancel: cancel, log: logger}

	logger.Info("announcing control socket", "port", port, "name", name)
	go func() {
		if err := responder.Respond(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("responder error", "err", err)
		}
	}()

	return a, nil
}

// Stop cancels the background responder.
func (a *Advertisement) Stop() {
	a.cancel()
}
