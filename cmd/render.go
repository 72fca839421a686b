package cmd

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/achilleasa/polaris-accel/renderer"
	"github.com/achilleasa/polaris-accel/scene"
	"github.com/achilleasa/polaris-accel/types"
)

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	opts := renderer.Options{
		FrameW:   uint32(ctx.Int("width")),
		FrameH:   uint32(ctx.Int("height")),
		TileSize: uint32(ctx.Int("tile")),
		Shadows:  ctx.Bool("shadows"),
		LightDir: types.XYZ(0.5, 1, 0.3),
	}

	sc, err := buildScene(ctx)
	if err != nil {
		return err
	}

	camera := setupCamera(sc, float32(ctx.Float64("fov")))
	r, err := renderer.New(sc, camera, opts)
	if err != nil {
		return err
	}

	logger.Notice("rendering frame")
	frame, err := r.Render()
	if err != nil {
		return err
	}

	// Export PNG
	imgFile := ctx.String("out")
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	if err = png.Encode(f, frame); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s in %d ms", imgFile, time.Since(start).Nanoseconds()/1e6)

	// Display stats
	displayFrameStats(r.Stats())
	return nil
}

// Use the camera defined by the scene file or frame the scene bounds.
func setupCamera(sc *scene.Scene, fov float32) *renderer.Camera {
	if sc.View != nil {
		camera := renderer.NewCamera(sc.View.FOV)
		camera.Position = sc.View.Eye
		camera.LookAt = sc.View.Look
		camera.Up = sc.View.Up
		return camera
	}

	bounds := sc.Bounds()
	center := bounds.Centroid()
	radius := 0.5 * bounds.Diagonal().Len()

	camera := renderer.NewCamera(fov)
	camera.Position = center.Add(types.XYZ(0, 0.6, 1).Normalize().Mul(2.2 * radius))
	camera.LookAt = center
	return camera
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Frame", "Tiles", "Primary rays", "Hits", "Shadow rays", "Occluded", "MRays/s", "Render time"})
	table.Append([]string{
		fmt.Sprintf("%dx%d", stats.FrameW, stats.FrameH),
		fmt.Sprintf("%d", stats.Tiles),
		fmt.Sprintf("%d", stats.PrimaryRays),
		fmt.Sprintf("%d", stats.Hits),
		fmt.Sprintf("%d", stats.ShadowRays),
		fmt.Sprintf("%d", stats.Occluded),
		fmt.Sprintf("%.2f", stats.RaysPerSecond()/1e6),
		stats.RenderTime.String(),
	})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
