// Package watch observes udev netlink events for removable flash
// media so an operator can see when a card reader came up. It never
// starts a packaging run on its own.
package watch

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"campack/internal/logging"
)

// Device describes one detected flash-media block device.
type Device struct {
	Name   string
	FSType string
	Label  string
}

// Handler receives each detected device.
type Handler func(ctx context.Context, device Device)

// Monitor listens for block-device add events over udev netlink.
type Monitor struct {
	logger  *slog.Logger
	handler Handler

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMonitor creates a monitor that reports flash-media insertions to
// handler.
func NewMonitor(logger *slog.Logger, handler Handler) *Monitor {
	return &Monitor{
		logger:  logging.NewComponentLogger(logger, "watch"),
		handler: handler,
	}
}

// Start begins listening for udev netlink events. A failed netlink
// connection is non-fatal; the monitor just stays idle.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; card detection unavailable",
			logging.Args(logging.Error(err))...)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("card reader monitor started")
	return nil
}

// Stop shuts the monitor down.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("card reader monitor stopped")
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error", logging.Args(logging.Error(err))...)
		}
	}
}

// buildMatcher matches block-device additions. Filesystem-level
// filtering happens in handleEvent, because card readers differ in
// which env keys they populate.
func (m *Monitor) buildMatcher() netlink.Matcher {
	action := "add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
		},
	})
	return rules
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	name := extractDeviceName(uevent)
	if name == "" {
		return
	}

	fsType := uevent.Env["ID_FS_TYPE"]
	if fsType == "" && uevent.Env["ID_BUS"] != "usb" {
		// Bare device node with no filesystem and no USB transport,
		// e.g. a loop or dm device. Not camera media.
		return
	}

	device := Device{
		Name:   name,
		FSType: fsType,
		Label:  uevent.Env["ID_FS_LABEL"],
	}
	m.logger.Info("flash media detected",
		logging.Args(
			logging.String("device", device.Name),
			logging.String("fs_type", device.FSType),
			logging.String("label", device.Label),
		)...)

	if m.handler != nil {
		m.handler(ctx, device)
	}
}

func extractDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	if len(parts) == 0 {
		return ""
	}
	return "/dev/" + parts[len(parts)-1]
}
