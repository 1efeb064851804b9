package main

import (
	"log"

	"github.com/mealqr/console/internal/console/cli"
	"github.com/mealqr/console/internal/console/config"
)

func main() {
	cfg := config.LoadConfig()
	if err := cli.Run(cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
