package overlay

import (
	"math"
	"sync"
	"time"

	"desk-clock/internal/config"
)

// Service holds the overlay state shown by the frontend
type Service struct {
	config       *config.Service
	mu           sync.RWMutex
	isVisible    bool
	clickThrough bool
}

// ClockInfo holds everything the frontend needs to draw one frame
type ClockInfo struct {
	// Hand angles in radians, clockwise from 12
	Hour         float64 `json:"hour"`
	Minute       float64 `json:"minute"`
	Second       float64 `json:"second"`
	Radius       int     `json:"radius"`
	ClickThrough bool    `json:"click_through"`
	Visible      bool    `json:"visible"`
}

// New creates a new overlay service
func New(configSvc *config.Service) *Service {
	return &Service{
		config:    configSvc,
		isVisible: configSvc.Get().Window.Visible,
	}
}

// HandAngles returns the hour, minute and second hand angles for t.
// The hour hand advances with the minutes; the other hands jump.
func HandAngles(t time.Time) (hour, minute, second float64) {
	h, m, s := t.Clock()
	hour = 2*math.Pi/12*float64(h%12) + math.Pi/6/60*float64(m)
	minute = 2 * math.Pi / 60 * float64(m)
	second = 2 * math.Pi / 60 * float64(s)
	return hour, minute, second
}

// GetClockInfo returns the clock state at now
func (s *Service) GetClockInfo(now time.Time) *ClockInfo {
	hour, minute, second := HandAngles(now)

	s.mu.RLock()
	defer s.mu.RUnlock()

	return &ClockInfo{
		Hour:         hour,
		Minute:       minute,
		Second:       second,
		Radius:       s.config.Get().Clock.Radius,
		ClickThrough: s.clickThrough,
		Visible:      s.isVisible,
	}
}

// SetClickThrough records the latest click-through decision and reports
// whether it differs from the previous one
func (s *Service) SetClickThrough(enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clickThrough == enabled {
		return false
	}
	s.clickThrough = enabled
	return true
}

// IsClickThrough returns the latest click-through decision
func (s *Service) IsClickThrough() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clickThrough
}

// ToggleVisibility toggles the overlay visibility
func (s *Service) ToggleVisibility() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isVisible = !s.isVisible

	// Update config
	cfg := s.config.Get()
	cfg.Window.Visible = s.isVisible
	s.config.UpdateWindow(cfg.Window)

	return s.isVisible
}

// IsVisible returns current visibility state
func (s *Service) IsVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isVisible
}

// SetVisibility sets the overlay visibility
func (s *Service) SetVisibility(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isVisible = visible

	// Update config
	cfg := s.config.Get()
	cfg.Window.Visible = visible
	s.config.UpdateWindow(cfg.Window)
}

// GetWindowConfig returns current window configuration
func (s *Service) GetWindowConfig() config.WindowConfig {
	return s.config.Get().Window
}

// UpdateWindowConfig updates window configuration
func (s *Service) UpdateWindowConfig(windowConfig config.WindowConfig) error {
	return s.config.UpdateWindow(windowConfig)
}

// RememberGeometry stores the window's last position and size
func (s *Service) RememberGeometry(x, y, width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	cfg := s.config.Get().Window
	cfg.X, cfg.Y, cfg.Width, cfg.Height = x, y, width, height
	return s.config.UpdateWindow(cfg)
}

// Shutdown performs cleanup
func (s *Service) Shutdown() {
	// Save current state
	s.config.Save()
}
