// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package systemd reports service state to systemd with the sd_notify protocol.
//
// The socket and watchdog settings are read from the environment carried by
// the context, see [cli.GetEnv]. Outside of systemd every function here does
// nothing.
package systemd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.astrophena.name/vcbot/internal/cli"
	"go.astrophena.name/vcbot/internal/logger"
)

// State defines a sd-notify protocol state.
// See https://www.freedesktop.org/software/systemd/man/sd_notify.html.
type State string

const (
	// Ready tells the service manager that the bot has logged in and serves
	// commands.
	Ready State = "READY=1"
	// Stopping tells the service manager that the bot is leaving voice chats
	// and shutting down.
	Stopping State = "STOPPING=1"
	// Watchdog tells the service manager to update the watchdog timestamp.
	Watchdog State = "WATCHDOG=1"
)

// Status returns a state that sets the free-form status shown by systemctl
// status.
func Status(format string, args ...any) State {
	return State("STATUS=" + fmt.Sprintf(format, args...))
}

// Notify sends state to systemd. Errors are logged to logf.
func Notify(ctx context.Context, logf logger.Logf, state State) {
	name := cli.GetEnv(ctx).Getenv("NOTIFY_SOCKET")
	if name == "" {
		return
	}

	addr := &net.UnixAddr{Net: "unixgram", Name: name}
	conn, err := net.DialUnix(addr.Net, nil, addr)
	if err != nil {
		logf("systemd: failed when notifying: %v", err)
		return
	}
	defer conn.Close()

	if _, err = conn.Write([]byte(state)); err != nil {
		logf("systemd: failed when notifying: %v", err)
	}
}

// WatchdogLoop periodically updates systemd watchdog timestamp until ctx is
// canceled. It should run in a separate goroutine.
func WatchdogLoop(ctx context.Context, logf logger.Logf) {
	usec := cli.GetEnv(ctx).Getenv("WATCHDOG_USEC")
	if usec == "" {
		return
	}

	interval, err := watchdogInterval(usec)
	if err != nil {
		logf("%v", err)
		return
	}

	// Ping twice per interval, as sd_watchdog_enabled(3) recommends.
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			Notify(ctx, logf, Watchdog)
		case <-ctx.Done():
			return
		}
	}
}

func watchdogInterval(usec string) (time.Duration, error) {
	s, err := strconv.Atoi(usec)
	if err != nil {
		return 0, fmt.Errorf("systemd: error converting WATCHDOG_USEC: %w", err)
	}
	if s <= 0 {
		return 0, errors.New("systemd: WATCHDOG_USEC must be a positive number")
	}
	return time.Duration(s) * time.Microsecond, nil
}
