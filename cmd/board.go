package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Lists departures you can still walk to, grouped by destination area",
	Args:  cobra.NoArgs,
	RunE:  board,
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

func board(cmd *cobra.Command, args []string) error {
	manager, _, err := LoadManager()
	if err != nil {
		return err
	}

	areas, settings, err := manager.BoardWithSettings(context.Background())
	if err != nil {
		return err
	}

	for _, area := range areas {
		fmt.Printf("%s\n", area.Area)
		for _, row := range area.Rows {
			next := make([]string, 0, len(row.NextTimes))
			for _, n := range row.NextTimes {
				next = append(next, fmt.Sprintf("%d", n))
			}

			line := fmt.Sprintf("  %-8s %-6s %-30s %3d min  leave %-8s %s",
				row.LineType, row.Line, row.Direction, row.Minutes, row.LeaveLabel, row.StationName)
			if len(next) > 0 {
				line += fmt.Sprintf("  (then %s)", strings.Join(next, ", "))
			}
			if settings.ShowPlatform && row.Platform != "" {
				line += fmt.Sprintf("  [%s]", row.Platform)
			}
			if row.Delay != nil {
				line += fmt.Sprintf("  +%d", *row.Delay)
			}
			fmt.Println(line)
		}
	}

	return nil
}
