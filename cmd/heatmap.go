package cmd

import (
	"fmt"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Tracked time by weekday and hour",
	RunE:  runHeatmap,
}

func init() {
	rootCmd.AddCommand(heatmapCmd)
}

func runHeatmap(_ *cobra.Command, _ []string) error {
	r, err := buildReport(pipeline.ViewHeatmap)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PRODUCTIVITY HEATMAP"))
	fmt.Println()

	h := *r.Heatmap
	if h.Total() == 0 {
		fmt.Println("  No tracked time found.")
		return nil
	}

	fmt.Print(cli.RenderHeatmap(h, pipeline.Tier))
	fmt.Println()

	if day, hour, ok := pipeline.PeakCell(h); ok {
		fmt.Printf("  Peak: %s %02d:00 (%s)\n", cli.FormatDayOfWeek(day), hour, cli.FormatHours(h[day][hour]/60))
	}
	fmt.Printf("  Total tracked: %s\n", cli.FormatHours(h.Total()/60))
	return nil
}
