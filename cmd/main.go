package main

import (
	"context"
	"fmt"
	"os"

	"github.com/studypulse/studypulse-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Start(context.Background()); err != nil {
		a.Log.Error("Background startup failed", "error", err)
		os.Exit(1)
	}

	if err := a.Run(); err != nil {
		a.Log.Error("Server failed", "error", err)
	}
}
