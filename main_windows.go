//go:build windows

package main

import (
	"github.com/wailsapp/wails/v2/pkg/options"
	wailswindows "github.com/wailsapp/wails/v2/pkg/options/windows"
)

// applyPlatformOptions makes the webview see-through so only the clock face is drawn
func applyPlatformOptions(app *options.App) {
	app.Windows = &wailswindows.Options{
		WebviewIsTransparent: true,
		WindowIsTranslucent:  false,
		DisableWindowIcon:    true,
	}
}
