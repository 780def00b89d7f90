package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "Lists stations within walking distance",
	Args:  cobra.NoArgs,
	RunE:  stations,
}

var selectCmd = &cobra.Command{
	Use:   "select [station_id...]",
	Short: "Restricts the board to some stations. No arguments selects all.",
	RunE:  selectStations,
}

func init() {
	rootCmd.AddCommand(stationsCmd)
	rootCmd.AddCommand(selectCmd)
}

func stations(cmd *cobra.Command, args []string) error {
	manager, _, err := LoadManager()
	if err != nil {
		return err
	}

	settings, err := manager.Settings()
	if err != nil {
		return err
	}

	stations, err := manager.Stations(context.Background())
	if err != nil {
		return err
	}

	for _, station := range stations {
		marker := " "
		if len(settings.SelectedStations) > 0 && settings.IsSelected(station.ID) {
			marker = "*"
		}
		fmt.Printf("%s %s: %s (%d min, %dm)\n", marker, station.ID, station.Name, *station.WalkMinutes, *station.DistanceMeters)
	}

	return nil
}

func selectStations(cmd *cobra.Command, args []string) error {
	manager, _, err := LoadManager()
	if err != nil {
		return err
	}

	settings, err := manager.SelectStations(args)
	if err != nil {
		return err
	}

	if len(settings.SelectedStations) == 0 {
		fmt.Println("all stations selected")
	} else {
		fmt.Printf("%d stations selected\n", len(settings.SelectedStations))
	}

	return nil
}
