package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/achilleasa/polaris-accel/cmd"
	"github.com/achilleasa/polaris-accel/parallel"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "polaris-accel"
	app.Usage = "build and query ray tracing acceleration structures"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringSliceFlag{
			Name:  "log-module",
			Usage: "override the verbosity of a single logger, e.g. bvh=debug",
		},
		cli.IntFlag{
			Name:  "workers",
			Value: 0,
			Usage: "number of worker threads; 0 selects one less than the number of CPUs",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		parallel.InitWorkers(ctx.GlobalInt("workers"))
		return nil
	}
	app.After = func(ctx *cli.Context) error {
		parallel.Shutdown()
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build a bounding volume hierarchy and display its statistics",
			Description: `
Load a wavefront obj scene (or generate a procedural one when no file is given)
and build a bounding volume hierarchy over its triangles using either the
binned surface area heuristic or the linear (HLBVH) builder.`,
			ArgsUsage: "[scene_file.obj]",
			Flags:     cmd.SceneFlags,
			Action:    cmd.BuildAccel,
		},
		{
			Name:  "bench",
			Usage: "measure ray query throughput",
			Description: `
Build a hierarchy for the scene and trace a batch of random rays through it
using both occlusion (any-hit) and closest-hit queries.`,
			ArgsUsage: "[scene_file.obj]",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "rays",
					Value: 1000000,
					Usage: "number of rays to trace",
				},
				cli.BoolFlag{
					Name:  "count-traversal",
					Usage: "count visited nodes and tested primitives per ray",
				},
			}, cmd.SceneFlags...),
			Action: cmd.Bench,
		},
		{
			Name:        "render",
			Usage:       "render scene",
			Description: `Render a single frame visualizing surface normals.`,
			ArgsUsage:   "[scene_file.obj]",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "frame height",
				},
				cli.IntFlag{
					Name:  "tile",
					Value: 16,
					Usage: "tile size",
				},
				cli.Float64Flag{
					Name:  "fov",
					Value: 45,
					Usage: "vertical field of view in degrees when the scene does not define a camera",
				},
				cli.BoolFlag{
					Name:  "shadows",
					Usage: "trace shadow rays towards a distant light",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame",
				},
			}, cmd.SceneFlags...),
			Action: cmd.RenderFrame,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
