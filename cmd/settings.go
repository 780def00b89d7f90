package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tidbyt.dev/nearby"
)

var addressCmd = &cobra.Command{
	Use:   "address <address>",
	Short: "Sets the home location from an address",
	Args:  cobra.MinimumNArgs(1),
	RunE:  address,
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Updates board parameters",
	Args:  cobra.NoArgs,
	RunE:  set,
}

var (
	maxWalk      int
	perStation   int
	minMinutes   int
	maxMinutes   int
	showPlatform bool
	language     string
)

func init() {
	setCmd.Flags().IntVarP(&maxWalk, "max-walk", "w", 0, "Maximum walking time in minutes")
	setCmd.Flags().IntVarP(&perStation, "departures", "n", 0, "Departures to request per station")
	setCmd.Flags().IntVarP(&minMinutes, "min", "", 0, "Minimum minutes until departure")
	setCmd.Flags().IntVarP(&maxMinutes, "max", "", 0, "Maximum minutes until departure")
	setCmd.Flags().BoolVarP(&showPlatform, "platform", "p", true, "Show platforms")
	setCmd.Flags().StringVarP(&language, "language", "l", "", "Language (de or en)")
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(setCmd)
}

func address(cmd *cobra.Command, args []string) error {
	manager, _, err := LoadManager()
	if err != nil {
		return err
	}

	settings, err := manager.SetAddress(context.Background(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Printf("%s: %f, %f\n", settings.Address, settings.Latitude, settings.Longitude)
	return nil
}

func set(cmd *cobra.Command, args []string) error {
	manager, _, err := LoadManager()
	if err != nil {
		return err
	}

	settings, err := manager.Settings()
	if err != nil {
		return err
	}

	params := nearby.Parameters{
		MaxWalkMinutes:          settings.MaxWalkMinutes,
		MaxDeparturesPerStation: settings.MaxDeparturesPerStation,
		MinMinutes:              settings.MinMinutes,
		MaxMinutes:              settings.MaxMinutes,
		ShowPlatform:            settings.ShowPlatform,
	}

	flags := cmd.Flags()
	if flags.Changed("max-walk") {
		params.MaxWalkMinutes = maxWalk
	}
	if flags.Changed("departures") {
		params.MaxDeparturesPerStation = perStation
	}
	if flags.Changed("min") {
		params.MinMinutes = minMinutes
	}
	if flags.Changed("max") {
		params.MaxMinutes = maxMinutes
	}
	if flags.Changed("platform") {
		params.ShowPlatform = showPlatform
	}

	settings, err = manager.UpdateParameters(params)
	if err != nil {
		return err
	}

	if language != "" {
		settings, err = manager.SetLanguage(language)
		if err != nil {
			return err
		}
	}

	fmt.Printf(
		"walk <= %d min, %d departures/station, %d-%d min, platform %t, language %s\n",
		settings.MaxWalkMinutes,
		settings.MaxDeparturesPerStation,
		settings.MinMinutes,
		settings.MaxMinutes,
		settings.ShowPlatform,
		settings.Language,
	)
	return nil
}
