package planner

import (
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/routify-transit/routify/internal/ga"
	"github.com/routify-transit/routify/internal/geo"
	"github.com/routify-transit/routify/internal/graph"
	"github.com/routify-transit/routify/internal/metrics"
	"github.com/routify-transit/routify/internal/population"
	"github.com/routify-transit/routify/internal/route"
)

// TaskResult is one GA task's outcome. An individual
// task's failure never propagates — it is recorded here with Success=false
// and filtered out at the reduce step.
type TaskResult struct {
	Route          *route.Route
	Fitness        float64
	Success        bool
	StartCode      int32
	EndCode        int32
	StartRole      startRole
	GenerationsRun int
}

// runGATask builds a fresh Population for (startCode, endCode) and evolves
// it, returning the best route found. It never panics out to the caller:
// any internal failure (no path, invalid population) is reported as
// Success=false so sibling tasks are unaffected. It blocks on pool until a
// process-wide GA slot is free, bounding how many tasks evolve
// concurrently across simultaneous requests.
func runGATask(pool *ga.Pool, g *graph.Graph, startCode, endCode int32, role startRole, userCoords, destCoords geo.Coordinates, params GAParams, logger *slog.Logger) TaskResult {
	pool.Acquire()
	defer pool.Release()

	result := TaskResult{StartCode: startCode, EndCode: endCode, StartRole: role}

	start := time.Now()
	defer func() {
		metrics.GATaskDuration.WithLabelValues(strconv.FormatBool(result.Success)).Observe(time.Since(start).Seconds())
	}()

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

	pop, err := population.New(params.PopulationSize, startCode, endCode, userCoords, destCoords, g, rng)
	if err != nil {
		logger.Warn("GA task failed to seed population", "start", startCode, "end", endCode, "error", err)
		return result
	}

	result.GenerationsRun = pop.Evolve(params.Generations, params.MutationRate)

	best := pop.Best()
	if best == nil || pop.State() != population.HasSolution {
		logger.Info("GA task produced no solution", "start", startCode, "end", endCode, "state", pop.State())
		return result
	}

	fitness := best.Fitness(g, startCode, endCode, userCoords, destCoords)
	if fitness <= 0 {
		return result
	}

	result.Route = best
	result.Fitness = fitness
	result.Success = true
	return result
}
