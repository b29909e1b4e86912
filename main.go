package main

import (
	"context"
	"embed"
	"fmt"
	"os"
	"time"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"desk-clock/internal/config"
	"desk-clock/internal/hittest"
	"desk-clock/internal/host"
	"desk-clock/internal/overlay"
)

//go:embed all:frontend/dist
var assets embed.FS

const appTitle = "Desk Clock"

// App owns the overlay window and every service attached to it. It is
// created before the window exists and torn down when the window closes.
type App struct {
	ctx          context.Context
	config       *config.Service
	log          logger.Logger
	overlay      *overlay.Service
	bridge       *host.Bridge
	clickThrough *host.ClickThrough
	tester       *hittest.Tester
	offPixel     func()
}

// NewApp creates a new App application struct
func NewApp(configSvc *config.Service) *App {
	return &App{
		config:       configSvc,
		log:          configSvc.Logger(),
		clickThrough: host.NewClickThrough(appTitle),
	}
}

// OnStartup is called when the app starts up
func (a *App) OnStartup(ctx context.Context) {
	a.ctx = ctx

	a.overlay = overlay.New(a.config)

	a.bridge = host.NewBridge(func(name string, data ...interface{}) {
		runtime.EventsEmit(ctx, name, data...)
	})
	a.offPixel = runtime.EventsOn(ctx, host.EventPixel, a.bridge.HandleReply)

	cfg := a.config.Get()
	a.tester = hittest.New(host.NewCursor(), host.NewWindow(), a.bridge, a.clickThrough, hittest.Options{
		Interval:  a.config.Interval(),
		DropStale: cfg.HitTest.DropStale,
		Observer:  a.onPassthrough,
		Logger:    a.log,
	})
}

// OnDomReady is called once the frontend can answer capture requests
func (a *App) OnDomReady(ctx context.Context) {
	cfg := a.config.Get().Window
	runtime.WindowSetPosition(ctx, cfg.X, cfg.Y)
	runtime.WindowSetAlwaysOnTop(ctx, cfg.AlwaysOnTop)
	if !a.overlay.IsVisible() {
		runtime.WindowHide(ctx)
	}

	// The window may have been recreated since the handle was last looked up.
	a.clickThrough.Reset()
	a.tester.Start(ctx)
}

// OnBeforeClose remembers where the window was so it reopens in place
func (a *App) OnBeforeClose(ctx context.Context) bool {
	x, y := runtime.WindowGetPosition(ctx)
	w, h := runtime.WindowGetSize(ctx)
	if err := a.overlay.RememberGeometry(x, y, w, h); err != nil {
		a.log.Warning(fmt.Sprintf("failed to save window geometry: %v", err))
	}
	return false
}

// OnShutdown is called when the app is shutting down
func (a *App) OnShutdown(ctx context.Context) {
	if a.tester != nil {
		a.tester.Stop()
	}
	if a.bridge != nil {
		a.bridge.Close()
	}
	if a.offPixel != nil {
		a.offPixel()
	}
	if a.overlay != nil {
		a.overlay.Shutdown()
	}
}

// onPassthrough forwards hit-test decisions to the overlay state and,
// when the state flips, to the frontend
func (a *App) onPassthrough(passthrough bool) {
	if !a.overlay.SetClickThrough(passthrough) {
		return
	}
	runtime.EventsEmit(a.ctx, host.EventState, passthrough)
}

// GetClockInfo returns hand angles and overlay state for the current time
func (a *App) GetClockInfo() *overlay.ClockInfo {
	if a.overlay == nil {
		return &overlay.ClockInfo{}
	}
	return a.overlay.GetClockInfo(time.Now())
}

// IsClickThrough reports whether the window currently lets mouse events through
func (a *App) IsClickThrough() bool {
	if a.overlay == nil {
		return false
	}
	return a.overlay.IsClickThrough()
}

// ToggleVisibility toggles overlay visibility
func (a *App) ToggleVisibility() bool {
	if a.overlay == nil {
		return false
	}
	visible := a.overlay.ToggleVisibility()
	if visible {
		runtime.WindowShow(a.ctx)
	} else {
		runtime.WindowHide(a.ctx)
	}
	return visible
}

// windowChanges lists what a config update asks the live window to do
type windowChanges struct {
	moved   bool
	pinned  bool
	visible bool
	shown   bool
}

// mergeWindowConfig applies the fields present in update to current
func mergeWindowConfig(current config.WindowConfig, update map[string]interface{}) (config.WindowConfig, windowChanges) {
	var changes windowChanges

	if x, ok := update["x"].(float64); ok {
		current.X = int(x)
		changes.moved = true
	}
	if y, ok := update["y"].(float64); ok {
		current.Y = int(y)
		changes.moved = true
	}
	if alwaysOnTop, ok := update["always_on_top"].(bool); ok {
		current.AlwaysOnTop = alwaysOnTop
		changes.pinned = true
	}
	if visible, ok := update["visible"].(bool); ok {
		current.Visible = visible
		changes.visible = true
		changes.shown = visible
	}

	return current, changes
}

// UpdateWindowConfig updates window configuration and applies it to the window
func (a *App) UpdateWindowConfig(config map[string]interface{}) error {
	if a.overlay == nil {
		return fmt.Errorf("overlay service not available")
	}

	current, changes := mergeWindowConfig(a.overlay.GetWindowConfig(), config)
	if err := a.overlay.UpdateWindowConfig(current); err != nil {
		return err
	}

	if changes.moved {
		runtime.WindowSetPosition(a.ctx, current.X, current.Y)
	}
	if changes.pinned {
		runtime.WindowSetAlwaysOnTop(a.ctx, current.AlwaysOnTop)
	}
	if changes.visible {
		a.overlay.SetVisibility(changes.shown)
		if changes.shown {
			runtime.WindowShow(a.ctx)
		} else {
			runtime.WindowHide(a.ctx)
		}
	}

	return nil
}

func main() {
	configSvc, err := config.New()
	if err != nil {
		fmt.Printf("Failed to initialize config: %v\n", err)
		os.Exit(1)
	}

	// Create an instance of the app structure
	app := NewApp(configSvc)
	cfg := configSvc.Get()

	// Create application with options
	appOptions := &options.App{
		Title:  appTitle,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Frameless:        true,
		AlwaysOnTop:      cfg.Window.AlwaysOnTop,
		DisableResize:    true,
		BackgroundColour: &options.RGBA{R: 0, G: 0, B: 0, A: 0}, // Transparent
		OnStartup:        app.OnStartup,
		OnDomReady:       app.OnDomReady,
		OnBeforeClose:    app.OnBeforeClose,
		OnShutdown:       app.OnShutdown,
		Logger:           app.log,
		LogLevel:         configSvc.Level(),
		Bind:             []interface{}{app},
	}
	applyPlatformOptions(appOptions)

	if err := wails.Run(appOptions); err != nil {
		fmt.Printf("Error starting application: %v\n", err)
		os.Exit(1)
	}
}
