package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	topLimit       int
	recentLimit    int
	alertThreshold float64

	topCmd = &cobra.Command{
		Use:   "top",
		Short: "Most expensive contexts in the window",
		RunE: func(cmd *cobra.Command, args []string) error {
			reporter, err := loadReporter()
			if err != nil {
				return err
			}
			fmt.Print(reporter.TopContexts(topLimit))
			return nil
		},
	}

	contextCmd = &cobra.Command{
		Use:   "context <name>",
		Short: "Deep breakdown of a single context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reporter, err := loadReporter()
			if err != nil {
				return err
			}
			fmt.Print(reporter.Breakdown(args[0]))
			return nil
		},
	}

	alertsCmd = &cobra.Command{
		Use:   "alerts",
		Short: "Calls at or above a cost threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			reporter, err := loadReporter()
			if err != nil {
				return err
			}
			fmt.Print(reporter.Alerts(alertThreshold))
			return nil
		},
	}

	hourlyCmd = &cobra.Command{
		Use:   "hourly",
		Short: "Call count and cost bucketed by hour of day",
		RunE: func(cmd *cobra.Command, args []string) error {
			reporter, err := loadReporter()
			if err != nil {
				return err
			}
			fmt.Print(reporter.Hourly())
			return nil
		},
	}

	recentCmd = &cobra.Command{
		Use:   "recent",
		Short: "Most recent calls in chronological order",
		RunE: func(cmd *cobra.Command, args []string) error {
			reporter, err := loadReporter()
			if err != nil {
				return err
			}
			fmt.Print(reporter.Recent(recentLimit))
			return nil
		},
	}

	weeklyCmd = &cobra.Command{
		Use:   "weekly",
		Short: "Composite weekly report with anomaly detection",
		RunE: func(cmd *cobra.Command, args []string) error {
			reporter, err := loadReporter()
			if err != nil {
				return err
			}
			fmt.Print(reporter.Weekly())
			return nil
		},
	}
)

func init() {
	topCmd.Flags().IntVar(&topLimit, "limit", 10, "Number of contexts to show")
	recentCmd.Flags().IntVar(&recentLimit, "limit", 20, "Number of calls to show")
	alertsCmd.Flags().Float64Var(&alertThreshold, "threshold", 0.50, "Cost threshold in USD")

	rootCmd.AddCommand(topCmd, contextCmd, alertsCmd, hourlyCmd, recentCmd, weeklyCmd)
}
