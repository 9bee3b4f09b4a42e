package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDHost is the identifier for the host API section
	SectionIDHost = "host"

	defaultBrowserHeadless   = true
	defaultViewportWidth     = 1280
	defaultViewportHeight    = 720
	defaultMaxWindows        = 5
	defaultNavigationTimeout = 30 * time.Second
)

// HostSection configures the browser host API and the override profile
// applied on top of it.
type HostSection struct {
	BrowserHeadless   bool          `json:"browser_headless"`
	ViewportWidth     int           `json:"viewport_width"`
	ViewportHeight    int           `json:"viewport_height"`
	MaxWindows        int           `json:"max_windows"`
	NavigationTimeout time.Duration `json:"navigation_timeout"`
	OverrideProfile   string        `json:"override_profile"`
	mu                sync.RWMutex
}

// NewHostSection creates a host section with default settings.
func NewHostSection() *HostSection {
	s := &HostSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *HostSection) ID() string {
	return SectionIDHost
}

// Title returns the section title.
func (s *HostSection) Title() string {
	return "Host API"
}

// Description returns the section description.
func (s *HostSection) Description() string {
	return "Configure the browser host API and the override profile applied to it."
}

// Data returns the current configuration data.
func (s *HostSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"browser_headless":   s.BrowserHeadless,
		"viewport_width":     s.ViewportWidth,
		"viewport_height":    s.ViewportHeight,
		"max_windows":        s.MaxWindows,
		"navigation_timeout": s.NavigationTimeout.String(),
		"override_profile":   s.OverrideProfile,
	}
}

// SetData updates the configuration from the provided data. Unknown keys
// are ignored.
func (s *HostSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "browser_headless":
			enabled, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for browser_headless: expected bool, got %T", value)
			}
			s.BrowserHeadless = enabled
		case "viewport_width":
			s.ViewportWidth, err = toInt(key, value)
		case "viewport_height":
			s.ViewportHeight, err = toInt(key, value)
		case "max_windows":
			s.MaxWindows, err = toInt(key, value)
		case "navigation_timeout":
			s.NavigationTimeout, err = toDuration(key, value)
		case "override_profile":
			path, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for override_profile: expected string, got %T", value)
			}
			s.OverrideProfile = path
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *HostSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ViewportWidth < 100 || s.ViewportWidth > 5000 {
		return fmt.Errorf("viewport_width must be between 100 and 5000 pixels, got %d", s.ViewportWidth)
	}
	if s.ViewportHeight < 100 || s.ViewportHeight > 5000 {
		return fmt.Errorf("viewport_height must be between 100 and 5000 pixels, got %d", s.ViewportHeight)
	}
	if s.MaxWindows < 1 {
		return fmt.Errorf("max_windows must be at least 1, got %d", s.MaxWindows)
	}
	if s.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation_timeout must be positive, got %v", s.NavigationTimeout)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *HostSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.BrowserHeadless = defaultBrowserHeadless
	s.ViewportWidth = defaultViewportWidth
	s.ViewportHeight = defaultViewportHeight
	s.MaxWindows = defaultMaxWindows
	s.NavigationTimeout = defaultNavigationTimeout
	s.OverrideProfile = ""
}

// IsBrowserHeadless returns whether new windows run without a visible browser.
func (s *HostSection) IsBrowserHeadless() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.BrowserHeadless
}

// SetBrowserHeadless sets the headless default.
func (s *HostSection) SetBrowserHeadless(headless bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BrowserHeadless = headless
}

// GetViewport returns the default window viewport as (width, height).
func (s *HostSection) GetViewport() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ViewportWidth, s.ViewportHeight
}

// GetMaxWindows returns the maximum number of open windows.
func (s *HostSection) GetMaxWindows() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MaxWindows
}

// GetNavigationTimeout returns the page navigation timeout.
func (s *HostSection) GetNavigationTimeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NavigationTimeout
}

// GetOverrideProfile returns the path of the override profile, if any.
func (s *HostSection) GetOverrideProfile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.OverrideProfile
}

// SetOverrideProfile sets the override profile path.
func (s *HostSection) SetOverrideProfile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.OverrideProfile = path
}

// toInt accepts JSON numbers (float64) as well as Go integers.
func toInt(key string, value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected number, got %T", key, value)
	}
}

// toDuration accepts duration strings ("30s") and nanosecond counts.
func toDuration(key string, value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string for %s: %w", key, err)
		}
		return d, nil
	case float64:
		return time.Duration(v), nil
	case int64:
		return time.Duration(v), nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected string or number, got %T", key, value)
	}
}
