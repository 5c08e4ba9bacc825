package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/notify"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one expiry reconciliation pass and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.reconciler.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Reconciled as of %s\n", res.Today)
		fmt.Printf("  expired:     %d\n", res.Reclassified[model.BatchExpired])
		fmt.Printf("  near expiry: %d\n", res.Reclassified[model.BatchNearExpiry])
		fmt.Printf("  in stock:    %d\n", res.Reclassified[model.BatchInStock])
		fmt.Printf("  suppressed:  %d\n", res.Suppressed)
		return nil
	},
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Raise expiry notifications once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		job := &notify.Job{DB: a.db, Reconciler: a.reconciler, Metrics: a.metrics}
		raised, err := job.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Raised %d near-expiry and %d expired notifications\n",
			raised[model.NotifyNearExpiry], raised[model.NotifyExpired])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd, notifyCmd)
}
