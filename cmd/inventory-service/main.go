// Package main boots the inventory service.
package main

import (
	"context"
	"os"

	"github.com/fairyhunter13/inventory-service/internal/cli"
	"github.com/fairyhunter13/inventory-service/internal/obs"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		obs.Logger.Error("command_failed", "error", err)
		os.Exit(1)
	}
}
