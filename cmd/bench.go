package cmd

import (
	"bytes"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/chewxy/math32"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/achilleasa/polaris-accel/bvh"
	"github.com/achilleasa/polaris-accel/parallel"
	"github.com/achilleasa/polaris-accel/types"
)

const benchChunkSize = 4096

type benchResult struct {
	query string
	rays  int
	hits  uint64
	time  time.Duration

	// Only populated when traversal counting is enabled.
	nodesVisited, primsTested uint64
}

// Counts traversal events across all workers.
type traversalCounter struct {
	nodesVisited atomic.Uint64
	primsTested  atomic.Uint64
}

func (c *traversalCounter) NodeVisited(node int, hit bool) {
	c.nodesVisited.Add(1)
}

func (c *traversalCounter) PrimitiveTested(prim int) {
	c.primsTested.Add(1)
}

// Measure ray query throughput for any-hit and closest-hit queries.
func Bench(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	sc, err := buildScene(ctx)
	if err != nil {
		return err
	}
	accel := sc.Accelerator()
	displayBuildStats(accel.Stats())

	rays := genBenchRays(sc.Bounds(), ctx.Int("rays"), ctx.Int64("seed"))
	logger.Noticef("tracing %d rays using %d workers", len(rays), parallel.Workers()+1)

	var counter *traversalCounter
	if ctx.Bool("count-traversal") {
		counter = &traversalCounter{}
		accel.SetTraversalHook(counter)
	}

	results := []benchResult{
		runBench("any-hit", rays, counter, func(ray *types.Ray) bool {
			return accel.Intersect(ray)
		}),
		runBench("closest-hit", rays, counter, func(ray *types.Ray) bool {
			var isect bvh.Interaction
			return accel.IntersectHit(ray, &isect)
		}),
	}

	displayBenchResults(results, counter != nil)
	return nil
}

// Generate rays that start on a sphere enclosing the bounds and point towards
// random locations inside them.
func genBenchRays(bounds types.Bounds3, count int, seed int64) []types.Ray {
	rng := rand.New(rand.NewSource(seed))
	center := bounds.Centroid()
	radius := 0.5*bounds.Diagonal().Len() + 1

	rays := make([]types.Ray, count)
	for i := range rays {
		// Uniform direction on the unit sphere.
		z := 2*rng.Float32() - 1
		phi := 2 * math32.Pi * rng.Float32()
		r := math32.Sqrt(math32.Max(0, 1-z*z))
		sinPhi, cosPhi := math32.Sincos(phi)
		origin := center.Add(types.XYZ(r*cosPhi, r*sinPhi, z).Mul(radius))

		d := bounds.Diagonal()
		target := bounds.Min.Add(types.XYZ(d[0]*rng.Float32(), d[1]*rng.Float32(), d[2]*rng.Float32()))
		rays[i] = types.NewRay(origin, target.Sub(origin).Normalize())
	}
	return rays
}

func runBench(query string, rays []types.Ray, counter *traversalCounter, fn func(ray *types.Ray) bool) benchResult {
	var nodesBefore, primsBefore uint64
	if counter != nil {
		nodesBefore, primsBefore = counter.nodesVisited.Load(), counter.primsTested.Load()
	}

	var hits atomic.Uint64
	start := time.Now()
	parallel.For(len(rays), benchChunkSize, func(i int) {
		// Queries shrink TMax so each one works on a copy.
		ray := rays[i]
		if fn(&ray) {
			hits.Add(1)
		}
	})

	res := benchResult{
		query: query,
		rays:  len(rays),
		hits:  hits.Load(),
		time:  time.Since(start),
	}
	if counter != nil {
		res.nodesVisited = counter.nodesVisited.Load() - nodesBefore
		res.primsTested = counter.primsTested.Load() - primsBefore
	}
	return res
}

func displayBenchResults(results []benchResult, withTraversal bool) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	header := []string{"Query", "Rays", "Hits", "Time", "MRays/s"}
	if withTraversal {
		header = append(header, "Nodes/ray", "Prims/ray")
	}
	table.SetHeader(header)

	for _, res := range results {
		row := []string{
			res.query,
			fmt.Sprintf("%d", res.rays),
			fmt.Sprintf("%d", res.hits),
			res.time.String(),
			fmt.Sprintf("%.2f", float64(res.rays)/res.time.Seconds()/1e6),
		}
		if withTraversal {
			row = append(row,
				fmt.Sprintf("%.1f", float64(res.nodesVisited)/float64(res.rays)),
				fmt.Sprintf("%.1f", float64(res.primsTested)/float64(res.rays)),
			)
		}
		table.Append(row)
	}

	table.Render()
	logger.Noticef("ray query statistics\n%s", buf.String())
}
