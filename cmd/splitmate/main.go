package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"splitmate/internal/app"
	"splitmate/internal/config"
	"splitmate/pkg/logging"
)

const usage = `splitmate - track and settle shared expenses

Commands:
  login         -email -password
  register      -username -email -password
  verify-email  -token
  logout
  whoami
  dashboard
  groups        [-page -limit] [-create NAME -description TEXT]
  group         ID | -id ID
  invite        -group -user
  respond       -group [-accept]
  search        QUERY
  expense       -group -description -amount [-split EQUAL|EXACT|PERCENTAGE]
                [-with IDS] [-amounts user=amt,...] [-percents user=pct,...] [-note]
  pay           -to -amount -group [-expense]
  history       [-page -limit]
  notifications [-page -limit] [-read ID [-delete]] [-read-all]
  chat          -group [-send TEXT] [-page -limit]
  status
  watch         GROUP | -group GROUP
`

func main() {
	logging.Setup()

	args := os.Args[1:]
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Print(usage)
		return
	}

	cfg := config.Load()

	a, err := app.New(cfg, os.Stdout)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx, args); err != nil {
		slog.Error("command failed", "error", err)
		a.Close()
		os.Exit(1)
	}
}
