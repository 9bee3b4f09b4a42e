package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/entrhq/hostproxy/pkg/config"
	"github.com/entrhq/hostproxy/pkg/hostapi"
	"github.com/entrhq/hostproxy/pkg/hostapi/browser"
	"github.com/entrhq/hostproxy/pkg/hostapi/profile"
	"github.com/entrhq/hostproxy/pkg/logging"
)

// hostFactory opens the real host API. The returned function releases it.
type hostFactory func(ctx context.Context, section *config.HostSection, logger *logging.Logger) (hostapi.Namespace, func() error, error)

// app holds the flags and resources shared by every command.
type app struct {
	configPath  string
	profilePath string
	noProfile   bool
	logLevel    string

	newHost   hostFactory
	logOutput io.Writer // session log file when nil
	logger    *logging.Logger
	host      hostapi.Namespace
	closers   []func() error
}

func newApp() *app {
	return &app{newHost: playwrightHost}
}

func playwrightHost(ctx context.Context, section *config.HostSection, logger *logging.Logger) (hostapi.Namespace, func() error, error) {
	opts := browser.OptionsFromConfig(section)
	opts.Logger = logger.With("browser")
	driver := browser.NewPlaywrightDriver(browser.PlaywrightOptions{
		NavigationTimeout: section.GetNavigationTimeout(),
	})
	host := browser.NewHost(driver, opts)
	return host.Root(), host.Close, nil
}

// setup loads configuration and opens the session log.
func (a *app) setup() error {
	level, err := logging.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	if err := config.Initialize(a.configPath); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if a.logOutput != nil {
		a.logger = logging.NewWriterLogger("hostctl", a.logOutput)
	} else {
		// on error NewLogger returns a stderr logger, which is good enough
		a.logger, _ = logging.NewLogger("hostctl")
		a.closers = append(a.closers, a.logger.Close)
	}
	a.logger.SetLevel(level)
	return nil
}

// openHost installs the real host as the process-wide root and registers
// the active override profile, if any. It returns the unwrapped host.
func (a *app) openHost(ctx context.Context) (hostapi.Namespace, error) {
	if a.host != nil {
		return a.host, nil
	}

	section := config.GetHost()
	if section == nil {
		section = config.NewHostSection()
	}
	host, closeHost, err := a.newHost(ctx, section, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open host: %w", err)
	}
	a.closers = append(a.closers, closeHost)
	a.host = host
	hostapi.SetHost(host, hostapi.WithLogger(a.logger.With("hostapi")))

	path := a.profilePath
	if path == "" {
		path = section.GetOverrideProfile()
	}
	if path == "" || a.noProfile {
		hostapi.Register(nil)
		return host, nil
	}

	p, err := profile.Load(path)
	if err != nil {
		return nil, err
	}
	overrides, err := profile.Build(p, host, a.logger.With("profile"))
	if err != nil {
		return nil, err
	}
	hostapi.Register(overrides)
	a.logger.Infof("applied override profile %s (%d override(s))", p.Name, len(overrides))
	return host, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	a.host = nil
	return errors.Join(errs...)
}
