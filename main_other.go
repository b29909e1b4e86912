//go:build !windows

package main

import (
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
)

// applyPlatformOptions makes the webview see-through. Click-through itself is
// a no-op off Windows, so the window captures the mouse over its whole frame.
func applyPlatformOptions(app *options.App) {
	app.Mac = &mac.Options{
		TitleBar:             mac.TitleBarHiddenInset(),
		WebviewIsTransparent: true,
		WindowIsTranslucent:  false,
	}
	app.Linux = &linux.Options{
		WindowIsTranslucent: true,
	}
}
