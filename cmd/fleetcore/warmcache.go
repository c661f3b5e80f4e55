package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwmdev/schoolbus-fleet-core/config"
	"github.com/jwmdev/schoolbus-fleet-core/ingest"
	"github.com/jwmdev/schoolbus-fleet-core/logging"
	"github.com/jwmdev/schoolbus-fleet-core/model"
	"github.com/jwmdev/schoolbus-fleet-core/routerclient"
)

var warmCacheRoutesPath string
var warmCacheConfigPath string

// warmCacheCmd pre-populates the router client's persistent cache by
// requesting, once, the travel time from every route's last stop to every
// other route's first stop, ahead of an optimization run. Later single-pair
// TravelTime lookups for those pairs are served from the cache; block
// travel matrices are still fetched from the router's table service.
var warmCacheCmd = &cobra.Command{
	Use:   "warm-cache",
	Short: "Pre-fetch and persist travel times for every route pair",
	RunE:  runWarmCache,
}

func init() {
	warmCacheCmd.Flags().StringVar(&warmCacheRoutesPath, "routes", "", "path to a JSON route file (required)")
	warmCacheCmd.Flags().StringVar(&warmCacheConfigPath, "config", "", "path to a YAML router config file")
	_ = warmCacheCmd.MarkFlagRequired("routes")
}

func runWarmCache(cmd *cobra.Command, args []string) error {
	log := configureLogging()

	routerCfg := model.DefaultRouterConfig()
	if warmCacheConfigPath != "" {
		_, cfg, err := config.Load(warmCacheConfigPath)
		if err != nil {
			return err
		}
		routerCfg = cfg
	}
	if routerCfg.CachePath == "" {
		return fmt.Errorf("fleetcore: warm-cache requires router.cache_path to be set")
	}

	f, err := os.Open(warmCacheRoutesPath)
	if err != nil {
		return fmt.Errorf("fleetcore: open routes file: %w", err)
	}
	defer f.Close()
	routes, err := ingest.LoadRoutesFromReader(f)
	if err != nil {
		return err
	}

	router := routerclient.New(routerCfg, logging.Component(log.Logger, "router"))
	defer router.Close()

	ctx := context.Background()
	fetched := 0
	for _, a := range routes {
		for _, b := range routes {
			if a.ID == b.ID {
				continue
			}
			if _, ok := router.TravelTime(ctx, model.LocationOf(a.LastStop()), model.LocationOf(b.FirstStop())); ok {
				fetched++
			}
		}
	}
	log.WithField("pairs_fetched", fetched).Info("cache warmed")
	return nil
}
