package main

import (
	"context"
	"log"

	"github.com/mealqr/console/internal/devserver"
)

func main() {
	ctx := context.Background()
	cfg := devserver.LoadConfig()
	if err := devserver.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
