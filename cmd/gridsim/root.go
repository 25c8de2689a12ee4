// Package main is the cmd/gridsim driver: a cobra CLI that loads a
// scenario file, builds the simulation, runs it to completion, and
// prints statistics (SPEC_FULL.md AMBIENT STACK "CLI", mirroring the
// teacher's cmd/root.go runCmd).
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/krfmo/gridsim-sub001/config"
)

var (
	scenarioPath string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "gridsim",
	Short: "Discrete-event simulator for grid resource allocation",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a GridSim scenario to completion",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		scenario, err := config.Load(scenarioPath)
		if err != nil {
			logrus.Fatalf("Failed to load scenario: %v", err)
		}

		sim, err := config.Build(scenario)
		if err != nil {
			logrus.Fatalf("Failed to build simulation: %v", err)
		}

		logrus.Infof("Starting simulation from %s with %d resource(s), %d user(s)",
			scenarioPath, len(scenario.Resources), len(scenario.Users))

		if err := sim.Engine.Run(); err != nil {
			logrus.Fatalf("Simulation run failed: %v", err)
		}

		logrus.Infof("Simulation complete at t=%v", sim.Engine.Clock())
		sim.Sink.Print()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a GridSim scenario YAML file")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	_ = runCmd.MarkFlagRequired("scenario")

	rootCmd.AddCommand(runCmd)
}
