package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrNotStarted is returned when a browser operation is requested before
// Start has succeeded (or after Stop).
var ErrNotStarted = errors.New("browser session not started")

const (
	// DefaultLaunchRetries is how many times Start tries to launch the
	// browser before giving up.
	DefaultLaunchRetries = 3

	launchRetryPause = 2 * time.Second
	restartPause     = 2 * time.Second
)

// Session owns the lifecycle of a single browser process. It is not safe
// for concurrent use; the hide workflow drives it from one goroutine.
type Session struct {
	launcher Launcher
	sleep    func(time.Duration)

	driver Driver
	stop   func() error
}

func NewSession(launcher Launcher) *Session {
	return &Session{
		launcher: launcher,
		sleep:    time.Sleep,
	}
}

// Start launches the browser, retrying up to retries times with a fixed
// pause between attempts. retries <= 0 selects DefaultLaunchRetries. On
// exhaustion the last launch error is returned.
func (s *Session) Start(ctx context.Context, retries int) error {
	if retries <= 0 {
		retries = DefaultLaunchRetries
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		driver, stop, err := s.launcher.Launch(ctx)
		if err == nil {
			s.driver = driver
			s.stop = stop
			return nil
		}
		lastErr = err
		log.WithError(err).Warnf("Browser launch attempt %d/%d failed", attempt, retries)
		if attempt < retries {
			s.sleep(launchRetryPause)
		}
	}
	return fmt.Errorf("failed to launch browser after %d attempts: %w", retries, lastErr)
}

// Stop terminates the browser. It is a no-op when nothing is running.
// The session handle is cleared even when termination itself fails, so a
// later Start always launches fresh.
func (s *Session) Stop() error {
	if s.stop == nil {
		return nil
	}
	stop := s.stop
	s.driver = nil
	s.stop = nil
	if err := stop(); err != nil {
		return fmt.Errorf("failed to stop browser: %w", err)
	}
	return nil
}

// Restart stops the current browser, pauses to let the old process shut
// down, then starts a new one.
func (s *Session) Restart(ctx context.Context) error {
	if err := s.Stop(); err != nil {
		log.WithError(err).Warn("Error stopping browser during restart")
	}
	s.sleep(restartPause)
	return s.Start(ctx, 0)
}

// Driver returns the live driver, or ErrNotStarted when the session is
// not running.
func (s *Session) Driver() (Driver, error) {
	if s.driver == nil {
		return nil, ErrNotStarted
	}
	return s.driver, nil
}
