package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/inventory-service/internal/seed"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Starter bool
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add catalogue products that are not stored yet",
		Long: `Add catalogue products whose names are not already stored.

By default the extended catalogue is used with random quantities between 5
and 50. --starter uses the five-product starter set instead.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.RootOptions, cmd.Flags())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			svc, closeBackend, err := openService(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeBackend() }()

			items := seed.Catalogue(nil)
			if opts.Starter {
				items = seed.Starter()
			}
			added, err := seed.Seed(ctx, svc, items)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "added %d products\n", added)
			return err
		},
	}

	cmd.Flags().BoolVar(&opts.Starter, "starter", false, "seed the starter catalogue")

	return cmd
}
