package main

import (
	"fmt"
	"runtime"

	"github.com/locvowork/employee_records/internal/database"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var (
		preset    string
		employees int
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a deterministic HR dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			n := employees
			if n <= 0 {
				var err error
				if n, err = database.GetPresetConfig(database.SeedPreset(preset)); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			app, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			seeder := database.NewDataSeeder(app.Store, app.Index, workers)
			if err := seeder.SeedData(ctx, n); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d employees\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "preset", string(database.PresetSmall), "dataset size: small, medium or large")
	cmd.Flags().IntVar(&employees, "employees", 0, "number of employees (overrides --preset)")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "concurrent writers")
	return cmd
}

func newClearCmd() *cobra.Command {
	var (
		yes     bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every employee and department",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete all data without --yes")
			}

			ctx := cmd.Context()
			app, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := database.NewDataSeeder(app.Store, app.Index, workers).ClearData(ctx); err != nil {
				return fmt.Errorf("clear failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "concurrent deleters")
	return cmd
}
