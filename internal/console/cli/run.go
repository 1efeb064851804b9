package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mealqr/console/internal/console"
	"github.com/mealqr/console/internal/console/config"
	"github.com/mealqr/console/internal/console/tui"
	"github.com/mealqr/console/internal/logging"
)

// Run is the console entry point. It assembles the app, logs in if no
// persisted session survives, and drives the TUI until quit. A session that
// expires mid-run drops back to the login prompt instead of exiting.
func Run(cfg *config.Config) error {
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "console.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	log := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(logFile, nil)))

	app, err := console.New(cfg, log)
	if err != nil {
		return err
	}
	defer app.Stop()

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		return err
	}

	if len(os.Args) > 1 && os.Args[len(os.Args)-1] == "create-operator" {
		return createOperator(ctx, app)
	}

	for {
		if !app.Session.Authenticated() {
			if err := login(ctx, app); err != nil {
				return err
			}
		}

		model := tui.New(app)
		p := tea.NewProgram(model, tea.WithAltScreen())
		app.OnChange(func() { p.Send(tui.StateChangedMsg{}) })
		app.OnSessionExpired(func() { p.Send(tui.SessionExpiredMsg{}) })

		final, err := p.Run()
		if err != nil {
			return err
		}
		if m, ok := final.(*tui.Model); ok && m.Expired {
			fmt.Println("Session expired; please log in again.")
			continue
		}
		return nil
	}
}

func login(ctx context.Context, app *console.App) error {
	reader := bufio.NewReader(os.Stdin)
	for {
		username, err := GetSimpleText(reader, "Username", os.Stdout)
		if err != nil {
			return err
		}
		password, err := GetPassword(os.Stdout)
		if err != nil {
			return err
		}

		err = app.Session.Login(ctx, username, string(password))
		if err == nil {
			return nil
		}
		fmt.Printf("Login failed: %v\n", err)
	}
}

func createOperator(ctx context.Context, app *console.App) error {
	if !app.Session.Authenticated() {
		if err := login(ctx, app); err != nil {
			return err
		}
	}

	reader := bufio.NewReader(os.Stdin)
	username, err := GetSimpleText(reader, "New operator username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	role, err := GetSimpleText(reader, "Role (admin or operator)", os.Stdout)
	if err != nil {
		return err
	}

	op, err := app.Mutations.CreateOperator(ctx, username, string(password), role)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s (%s)\n", op.Username, op.Role)
	return nil
}
