package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"parkops/cmd"
	"parkops/database"
)

func main() {
	// Local development reads config from .env; deployments set real
	// environment variables.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	// Migration subcommands run without the full app wiring
	if command == "migrate" {
		if err := handleMigrationCommand(args); err != nil {
			log.Fatal("Migration error: ", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	var err error
	switch command {
	case "serve":
		err = cmd.Run(ctx)
	case "hide-event":
		err = cmd.RunHideEvent(ctx, args)
	case "audit":
		err = cmd.RunAudit(ctx, args)
	case "cash-bags":
		err = cmd.RunCashBags(ctx, args)
	case "inventory":
		err = cmd.RunInventory(ctx, args)
	default:
		err = fmt.Errorf("unknown command %q (expected serve, hide-event, audit, cash-bags, inventory or migrate)", command)
	}
	if err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: parkops migrate [up|down|status] [args...]")
	}

	switch args[0] {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(args) > 1 {
			steps = args[1]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", args[0])
	}
}
