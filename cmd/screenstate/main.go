package main

import (
	"context"
	"flag"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/screenstate/internal/app"
	"github.com/abelbrown/screenstate/internal/config"
	"github.com/abelbrown/screenstate/internal/coord"
	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/otel"
	"github.com/abelbrown/screenstate/internal/ui"
)

func main() {
	surveyID := flag.String("survey", "homepage-satisfaction", "Microsurvey ID to show")
	envFile := flag.String("env-file", "", "File of SCREENSTATE_* export lines applied over the config")
	flag.Parse()

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *envFile != "" {
		if err := cfg.LoadKeysFromFile(*envFile); err != nil {
			log.Fatalf("Failed to load env file: %v", err)
		}
	}

	rt, err := app.Open(cfg, app.Options{})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer rt.Close()

	// One window per process; the session manager allows more.
	w := rt.OpenWindow()

	// The program is created before the navigator so the presenter can
	// send to it; nothing is sent until Run starts the event loop.
	var program *tea.Program
	send := func(msg tea.Msg) { program.Send(msg) }

	tree := coord.NewTree(ui.Presenter{Send: send}, coord.TreeOptions{
		Window: w.ID.String(),
		Log:    rt.Log,
		Events: rt.Events,
	})
	nav := app.NewNavigator(w, tree, send, rt.Log)
	defer nav.Close()

	model := ui.NewApp(ui.AppConfig{
		Window:     w.ID,
		Dispatch:   w.Dispatch,
		Open:       nav.Open,
		Back:       nav.Back,
		SystemDark: lipgloss.HasDarkBackground,
		Ring:       rt.Ring,
		SurveyID:   *surveyID,
	})
	program = tea.NewProgram(model, tea.WithAltScreen())

	// Send blocks until the program runs, so the initial states are
	// forwarded from a goroutine.
	forwarding := make(chan func(), 1)
	go func() { forwarding <- ui.Forward(w, send) }()
	defer func() { (<-forwarding)() }()

	// Start brightness sampling for automatic theme switching
	watcher := coord.NewBrightnessWatcher(w.ID, rt.Brightness, w, 0)
	watcher.Start(ctx)

	rt.Log.Log("window opened", logging.Info, logging.CategoryLifecycle,
		logging.WithExtra(map[string]string{"window": w.ID.String(), "session": rt.Events.Session()}))

	// Run UI (blocks until quit)
	if _, err := program.Run(); err != nil {
		rt.Events.Error(otel.KindError, "main", err)
		log.Printf("Error running program: %v", err)
	}

	// Graceful shutdown
	cancel()
	watcher.Wait()
}
