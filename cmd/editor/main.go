package main

import (
	"context"
	"log"

	"atelier/editor/internal/app"
)

func main() {
	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
