package ui

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"

	"toonzip/config"
)

const appID = "io.github.toonzip"

// Run opens the main window and blocks until the application quits.
// configPath is where the configuration window saves; empty means the
// default config file.
func Run(cfg *config.Config, configPath string) {
	toonApp := app.NewWithID(appID)

	app.SetMetadata(fyne.AppMetadata{
		ID:      appID,
		Name:    "toonzip",
		Version: config.Version,
	})

	myWindow := toonApp.NewWindow("toonzip")
	state := NewAppState(toonApp, myWindow, cfg, configPath)

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Logs", func() {
			log.Println("[UI] Logs opened (GUI)")
			ShowLogWindow(toonApp)
		}),
		fyne.NewMenuItem("Configuration", func() {
			log.Println("[UI] Configuration opened (GUI)")
			ShowConfigWindow(state)
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", func() {
			log.Println("[UI] About dialog opened")
			ShowAboutDialog(toonApp)
		}),
	)

	myWindow.SetMainMenu(fyne.NewMainMenu(fileMenu, helpMenu))

	myWindow.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyQ,
		Modifier: fyne.KeyModifierControl,
	}, func(shortcut fyne.Shortcut) {
		log.Println("[UI] User closed application (ctrl + q)")
		quit(state)
	})
	myWindow.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyL,
		Modifier: fyne.KeyModifierControl,
	}, func(shortcut fyne.Shortcut) {
		log.Println("[UI] Logs opened (ctrl + l)")
		ShowLogWindow(toonApp)
	})

	myWindow.SetCloseIntercept(func() {
		log.Println("[UI] User closed application (window)")
		quit(state)
	})

	myWindow.Resize(fyne.NewSize(DefaultWindowWidth, DefaultWindowHeight))
	myWindow.SetContent(BuildMainLayout(state))
	myWindow.ShowAndRun()
}

// quit asks before abandoning a running download. A confirmed quit stops
// the job and waits for the in-flight episodes and the archive.
func quit(state *AppState) {
	if !state.Runner.Running() {
		state.App.Quit()
		return
	}

	dialog.ShowConfirm("Download running",
		"Stop the download and quit? Episodes in progress finish first.",
		func(ok bool) {
			if !ok {
				return
			}
			_ = state.Runner.Stop()
			go func() {
				state.Runner.Wait()
				fyne.Do(state.App.Quit)
			}()
		}, state.Window)
}
