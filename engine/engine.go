// Package engine orchestrates one full optimization job: it partitions
// routes into blocks, builds feasibility predicates and chains for each
// block in parallel, matches chains across blocks, and assembles the final
// schedule and diagnostics.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jwmdev/schoolbus-fleet-core/assemble"
	"github.com/jwmdev/schoolbus-fleet-core/block"
	"github.com/jwmdev/schoolbus-fleet-core/chain"
	"github.com/jwmdev/schoolbus-fleet-core/feasibility"
	"github.com/jwmdev/schoolbus-fleet-core/match"
	"github.com/jwmdev/schoolbus-fleet-core/model"
	"github.com/jwmdev/schoolbus-fleet-core/routerclient"
	"github.com/sirupsen/logrus"
)

// Engine runs optimization jobs against a shared Router Client.
type Engine struct {
	Router *routerclient.Client
	Log    *logrus.Entry
}

// New builds an Engine. router may be nil, in which case every travel time
// falls back to the great-circle estimate.
func New(router *routerclient.Client, log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{Router: router, Log: log}
}

type blockResult struct {
	block      model.Block
	chains     []*model.Chain
	diagnostic model.BlockDiagnostic
	err        error
}

// Run executes one optimization job for the given day, catching panics at
// the job boundary per spec §7 and returning status FAILED rather than
// letting them escape.
func (e *Engine) Run(ctx context.Context, routes []*model.Route, day model.Weekday, opt model.OptimizationOptions) (result *model.OptimizationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = &model.OptimizationResult{
				Diagnostics: model.Diagnostics{
					Status: model.StatusFailed,
					Error:  fmt.Sprintf("panic: %v", r),
				},
			}
			err = nil
		}
	}()

	jobTimeout := opt.JobTimeLimitSeconds
	if jobTimeout <= 0 {
		jobTimeout = 300
	}
	jobCtx, cancel := context.WithTimeout(ctx, time.Duration(jobTimeout)*time.Second)
	defer cancel()

	part := block.Partition(jobCtx, routes, day, opt.FallbackSpeedKMH, e.Router)

	if jobCtx.Err() == context.Canceled && ctx.Err() == context.Canceled {
		return &model.OptimizationResult{
			Unassigned:  part.Unassigned,
			Diagnostics: model.Diagnostics{Status: model.StatusCancelled, RouteCount: len(routes)},
		}, nil
	}

	blocks := []model.Block{model.BlockEntryMorning, model.BlockExitMidday, model.BlockEntryAfter, model.BlockExitEvening}
	results := make(map[model.Block]blockResult, len(blocks))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, b := range blocks {
		b := b
		jobs := part.Jobs[b]
		if len(jobs) == 0 {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := e.runBlock(jobCtx, b, jobs, part.Matrices[b], opt)
			mu.Lock()
			results[b] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	if jobCtx.Err() != nil && ctx.Err() == nil {
		return &model.OptimizationResult{
			Unassigned:  part.Unassigned,
			Diagnostics: model.Diagnostics{Status: model.StatusTimeout, RouteCount: len(routes)},
		}, nil
	}
	if ctx.Err() != nil {
		return &model.OptimizationResult{
			Unassigned:  part.Unassigned,
			Diagnostics: model.Diagnostics{Status: model.StatusCancelled, RouteCount: len(routes)},
		}, nil
	}

	diagnostics := make([]model.BlockDiagnostic, 0, len(blocks))
	for _, b := range blocks {
		if res, ok := results[b]; ok {
			diagnostics = append(diagnostics, res.diagnostic)
			if res.err != nil {
				return &model.OptimizationResult{
					Diagnostics: model.Diagnostics{
						Status: model.StatusFailed,
						Error:  res.err.Error(),
						Blocks: diagnostics,
					},
				}, nil
			}
		}
	}

	morningPairs := match.Match(jobCtx, results[model.BlockEntryMorning].chains, results[model.BlockExitMidday].chains, e.Router, opt.FallbackSpeedKMH)
	afternoonPairs := match.Match(jobCtx, results[model.BlockEntryAfter].chains, results[model.BlockExitEvening].chains, e.Router, opt.FallbackSpeedKMH)
	allPairs := append(morningPairs, afternoonPairs...)

	schedules, err := assemble.Assemble(jobCtx, allPairs, e.Router, opt)
	if err != nil {
		if _, ok := err.(*assemble.OverlapViolationError); ok {
			return &model.OptimizationResult{
				Diagnostics: model.Diagnostics{
					Status: model.StatusFailed,
					Error:  err.Error(),
					Blocks: diagnostics,
				},
			}, nil
		}
		return nil, err
	}

	scheduledCount := 0
	for _, s := range schedules {
		scheduledCount += len(s.Items)
	}

	status := model.StatusOK
	if len(part.Unassigned) > 0 {
		status = model.StatusOKUnassigned
	}

	breaker := model.CircuitBreakerSnapshot{}
	if e.Router != nil {
		counters := e.Router.Counters()
		breaker = model.CircuitBreakerSnapshot{
			Requests:        counters.Requests,
			CacheHits:       counters.CacheHits,
			APIErrors:       counters.APIErrors,
			BreakerOpenings: counters.BreakerOpenings,
			State:           counters.BreakerState,
		}
	}

	return &model.OptimizationResult{
		Schedules:  schedules,
		Unassigned: part.Unassigned,
		Diagnostics: model.Diagnostics{
			Status:          status,
			RouteCount:      len(routes),
			ScheduledCount:  scheduledCount,
			UnassignedCount: len(part.Unassigned),
			VehicleCount:    len(schedules),
			Blocks:          diagnostics,
			Breaker:         breaker,
		},
	}, nil
}

func (e *Engine) runBlock(ctx context.Context, b model.Block, jobs []*model.RouteJob, matrix *model.TravelMatrix, opt model.OptimizationOptions) blockResult {
	if ctx.Err() != nil {
		return blockResult{block: b, diagnostic: model.BlockDiagnostic{Block: b, Jobs: len(jobs)}}
	}

	routeType := jobs[0].Route.Type
	pred := feasibility.Build(jobs, matrix, opt)

	chains, err := chain.Optimize(ctx, b, jobs, pred, routeType, opt)
	if err != nil {
		return blockResult{block: b, err: err}
	}

	return blockResult{
		block:  b,
		chains: chains,
		diagnostic: model.BlockDiagnostic{
			Block:        b,
			Jobs:         len(jobs),
			Chains:       len(chains),
			SolverStatus: string(chain.StatusOptimal),
		},
	}
}
