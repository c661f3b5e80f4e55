package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwmdev/schoolbus-fleet-core/config"
	"github.com/jwmdev/schoolbus-fleet-core/engine"
	"github.com/jwmdev/schoolbus-fleet-core/ingest"
	"github.com/jwmdev/schoolbus-fleet-core/logging"
	"github.com/jwmdev/schoolbus-fleet-core/model"
	"github.com/jwmdev/schoolbus-fleet-core/routerclient"
)

var (
	routesPath string
	configPath string
	day        string
	outPath    string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run one optimization job against a route file",
	RunE:  runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVar(&routesPath, "routes", "", "path to a JSON route file (required)")
	optimizeCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML options/router config file")
	optimizeCmd.Flags().StringVar(&day, "day", "Mon", "service day to optimize for (Mon..Fri)")
	optimizeCmd.Flags().StringVar(&outPath, "out", "", "write the OptimizationResult as JSON here (default: stdout)")
	_ = optimizeCmd.MarkFlagRequired("routes")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	log := configureLogging()

	opt := model.DefaultOptions()
	routerCfg := model.DefaultRouterConfig()
	if configPath != "" {
		var err error
		opt, routerCfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}

	f, err := os.Open(routesPath)
	if err != nil {
		return fmt.Errorf("fleetcore: open routes file: %w", err)
	}
	defer f.Close()
	routes, err := ingest.LoadRoutesFromReader(f)
	if err != nil {
		return err
	}
	log.WithField("routes", len(routes)).Info("loaded routes")

	var router *routerclient.Client
	if routerCfg.BaseURL != "" {
		router = routerclient.New(routerCfg, logging.Component(log.Logger, "router"))
		defer router.Close()
	}

	e := engine.New(router, logging.Component(log.Logger, "engine"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(opt.JobTimeLimitSeconds+10)*time.Second)
	defer cancel()

	result, err := e.Run(ctx, routes, model.Weekday(day), opt)
	if err != nil {
		return fmt.Errorf("fleetcore: optimize: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if outPath != "" {
		out, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("fleetcore: create output file: %w", err)
		}
		defer out.Close()
		enc = json.NewEncoder(out)
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
