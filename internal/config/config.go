package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/logger"
)

// Config holds all application configuration
type Config struct {
	// Window settings
	Window WindowConfig `json:"window"`

	// Click-through sampling settings
	HitTest HitTestConfig `json:"hit_test"`

	// Clock face settings
	Clock ClockConfig `json:"clock"`

	// Logging
	LogLevel string `json:"log_level"` // "trace", "debug", "info", "warning", "error"
	LogFile  string `json:"log_file"`  // empty logs to stdout
}

// WindowConfig holds overlay window settings
type WindowConfig struct {
	X           int  `json:"x"`
	Y           int  `json:"y"`
	Width       int  `json:"width"`
	Height      int  `json:"height"`
	AlwaysOnTop bool `json:"always_on_top"`
	Visible     bool `json:"visible"`
}

// HitTestConfig holds click-through sampling settings
type HitTestConfig struct {
	IntervalMs int  `json:"interval_ms"`
	DropStale  bool `json:"drop_stale"` // Discard captures superseded by a newer one
}

// ClockConfig holds clock face settings
type ClockConfig struct {
	Radius int `json:"radius"`
}

// Service manages configuration persistence. Bound frontend methods and
// lifecycle hooks reach it from different goroutines.
type Service struct {
	mu       sync.RWMutex
	config   *Config
	filePath string
}

// New creates a new config service
func New() (*Service, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return NewAt(filepath.Join(homeDir, ".deskclock", "config.json"))
}

// NewAt creates a config service backed by the given file
func NewAt(configPath string) (*Service, error) {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	service := &Service{
		filePath: configPath,
		config:   getDefaultConfig(),
	}

	// Load existing config if it exists, otherwise create a default config file
	if _, err := os.Stat(configPath); err == nil {
		if err := service.Load(); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		if err := service.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	return service, nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			X:           100,
			Y:           100,
			Width:       200,
			Height:      200,
			AlwaysOnTop: true,
			Visible:     true,
		},
		HitTest: HitTestConfig{
			IntervalMs: 300,
			DropStale:  false,
		},
		Clock: ClockConfig{
			Radius: 98,
		},
		LogLevel: "info",
	}
}

// Get returns a copy of the current configuration
func (s *Service) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.config
}

// Load loads configuration from file
func (s *Service) Load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Unmarshal(data, s.config)
}

// Save saves configuration to file
func (s *Service) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked writes the configuration; callers hold mu
func (s *Service) saveLocked() error {
	data, err := json.MarshalIndent(s.config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.filePath, data, 0644)
}

// Path returns the full path to the configuration file
func (s *Service) Path() string {
	return s.filePath
}

// UpdateWindow updates window configuration
func (s *Service) UpdateWindow(window WindowConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Window = window
	return s.saveLocked()
}

// UpdateHitTest updates click-through sampling configuration
func (s *Service) UpdateHitTest(hitTest HitTestConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.HitTest = hitTest
	return s.saveLocked()
}

// Interval returns the sampling interval, falling back to 300ms for
// missing or non-positive values
func (s *Service) Interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config.HitTest.IntervalMs <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(s.config.HitTest.IntervalMs) * time.Millisecond
}

// Level maps the configured log level onto the Wails logger levels
func (s *Service) Level() logger.LogLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch s.config.LogLevel {
	case "trace":
		return logger.TRACE
	case "debug":
		return logger.DEBUG
	case "warning":
		return logger.WARNING
	case "error":
		return logger.ERROR
	default:
		return logger.INFO
	}
}

// Logger returns the logger the configuration asks for, filtered to the
// configured level
func (s *Service) Logger() logger.Logger {
	cfg := s.Get()
	var base logger.Logger = logger.NewDefaultLogger()
	if cfg.LogFile != "" {
		base = logger.NewFileLogger(cfg.LogFile)
	}
	return &levelled{Logger: base, level: s.Level()}
}

// levelled drops messages below its level before they reach the wrapped logger
type levelled struct {
	logger.Logger
	level logger.LogLevel
}

func (l *levelled) Trace(message string) {
	if l.level <= logger.TRACE {
		l.Logger.Trace(message)
	}
}

func (l *levelled) Debug(message string) {
	if l.level <= logger.DEBUG {
		l.Logger.Debug(message)
	}
}

func (l *levelled) Info(message string) {
	if l.level <= logger.INFO {
		l.Logger.Info(message)
	}
}

func (l *levelled) Warning(message string) {
	if l.level <= logger.WARNING {
		l.Logger.Warning(message)
	}
}
