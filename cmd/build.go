package cmd

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/achilleasa/polaris-accel/bvh"
)

// Build the acceleration structure for a scene and report its statistics.
func BuildAccel(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	sc, err := buildScene(ctx)
	if err != nil {
		return err
	}

	displayBuildStats(sc.Accelerator().Stats())
	return nil
}

func displayBuildStats(stats bvh.BuildStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Method", "Primitives", "Nodes", "Leaves", "Max depth", "Max leaf size", "SAH cost", "Cost evals", "Build time"})
	table.Append([]string{
		stats.Method.String(),
		fmt.Sprintf("%d", stats.Primitives),
		fmt.Sprintf("%d", stats.Nodes),
		fmt.Sprintf("%d", stats.Leaves),
		fmt.Sprintf("%d", stats.MaxDepth),
		fmt.Sprintf("%d", stats.MaxLeafPrims),
		fmt.Sprintf("%.2f", stats.SAHCost),
		fmt.Sprintf("%d", stats.CostEvaluations),
		stats.BuildTime.String(),
	})

	table.Render()
	logger.Noticef("hierarchy statistics\n%s", buf.String())
}
