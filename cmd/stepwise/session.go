package main

import (
	"context"
	"fmt"

	"github.com/entrhq/stepwise/pkg/config"
	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/driver/cdpdriver"
	"github.com/entrhq/stepwise/pkg/driver/pwdriver"
	"github.com/entrhq/stepwise/pkg/logging"
)

// openSession starts the configured driver. The returned shutdown func
// releases everything the driver started and is safe to call after the
// session has quit.
func openSession(ctx context.Context, cfg config.DriverConfig, log *logging.Logger) (driver.Session, func(), error) {
	switch cfg.Name {
	case config.DriverChromedp:
		var (
			s   *cdpdriver.Session
			err error
		)
		if cfg.RemoteURL != "" {
			s, err = cdpdriver.Attach(ctx, cfg.RemoteURL, log)
		} else {
			s, err = cdpdriver.Launch(ctx, cdpdriver.Options{
				Headless: cfg.Headless,
				Width:    cfg.Viewport.Width,
				Height:   cfg.Viewport.Height,
			}, log)
		}
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Quit(context.Background()) }, nil

	case config.DriverPlaywright, "":
		m := pwdriver.NewManager(log)
		if err := m.Initialize(); err != nil {
			return nil, nil, err
		}
		s, err := m.Launch(pwdriver.Options{
			Headless:  cfg.Headless,
			Width:     cfg.Viewport.Width,
			Height:    cfg.Viewport.Height,
			Timeout:   cfg.Timeout,
			RemoteURL: cfg.RemoteURL,
		})
		if err != nil {
			_ = m.Shutdown()
			return nil, nil, err
		}
		return s, func() {
			if err := m.Shutdown(); err != nil {
				log.Warnf("playwright shutdown: %v", err)
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown driver %q", cfg.Name)
}
