// Command server runs the lingocards HTTP API.
//
// Configuration comes from CONFIG_PATH (yaml) and/or environment
// variables; DATABASE_DSN is required.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/heartmarshall/lingocards-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
