package cmd

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/urfave/cli"

	"github.com/achilleasa/polaris-accel/bvh"
	"github.com/achilleasa/polaris-accel/scene"
	"github.com/achilleasa/polaris-accel/types"
)

const (
	sphereStacks    = 16
	sphereSlices    = 32
	sphereTriangles = 2*sphereStacks*sphereSlices - 2*sphereSlices
)

// Flags shared by all commands that build a scene.
var SceneFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "method, m",
		Value: "sah",
		Usage: "hierarchy build method (sah or hlbvh)",
	},
	cli.StringFlag{
		Name:  "generator, g",
		Value: "random",
		Usage: "procedural scene to use when no scene file is given (random, spheres or grid)",
	},
	cli.IntFlag{
		Name:  "count, n",
		Value: 100000,
		Usage: "approximate number of triangles in procedural scenes",
	},
	cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "random seed for procedural scenes",
	},
}

// Load the scene file passed as the first argument or generate a procedural
// scene.
func loadScene(ctx *cli.Context) (*scene.Scene, error) {
	if ctx.NArg() > 0 {
		return scene.LoadWavefront(ctx.Args().First())
	}

	count := ctx.Int("count")
	rng := rand.New(rand.NewSource(ctx.Int64("seed")))

	sc := scene.New()
	switch ctx.String("generator") {
	case "random":
		sc.AddMesh(scene.RandomTriangles(rng, count, 100))
	case "grid":
		side := 1
		for 2*side*side < count {
			side++
		}
		sc.AddMesh(scene.Grid(side, side, 100))
	case "spheres":
		sc.AddMesh(scene.Grid(16, 16, 100))
		spheres := max(count/sphereTriangles, 1)
		for i := 0; i < spheres; i++ {
			radius := 1 + 4*rng.Float32()
			center := types.XYZ(
				(2*rng.Float32()-1)*45,
				radius+10*rng.Float32(),
				(2*rng.Float32()-1)*45,
			)
			sc.AddMesh(scene.Sphere(center, radius, sphereStacks, sphereSlices))
		}
	default:
		return nil, fmt.Errorf("unknown scene generator %q", ctx.String("generator"))
	}

	return sc, nil
}

// Load a scene and build its acceleration structure using the method selected
// by the command flags.
func buildScene(ctx *cli.Context) (*scene.Scene, error) {
	method, err := bvh.ParseBuildMethod(ctx.String("method"))
	if err != nil {
		return nil, err
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infof("scene information:\n%s", sc.Stats())

	logger.Noticef("building %s hierarchy for %d triangles", method, sc.TriangleCount())
	start := time.Now()
	if err = sc.Build(bvh.Options{Method: method}); err != nil {
		return nil, err
	}
	logger.Noticef("built hierarchy in %d ms", time.Since(start).Nanoseconds()/1e6)

	return sc, nil
}
