// Command organizapay-admin runs operator tasks against the record store.
//
//	organizapay-admin set-plan <email> <free|premium>
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"organizapay/internal/cli"
	"organizapay/internal/core"
	"organizapay/internal/log"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: organizapay-admin set-plan <email> <free|premium>")
	os.Exit(2)
}

func main() {
	if len(os.Args) != 4 || os.Args[1] != "set-plan" {
		usage()
	}
	email, plan := os.Args[2], core.Plan(os.Args[3])

	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	be := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if be.Cleanup != nil {
			_ = be.Cleanup()
		}
	}()

	if err := cli.SetPlan(ctx, logger, be.Backend, email, plan); err != nil {
		logger.Error("Failed to set plan", log.FieldError, err)
		cancel()
		os.Exit(1)
	}
	logger.Info("Plan updated", "email", email, log.FieldPlan, string(plan))
}
