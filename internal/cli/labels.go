package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/pdevulapally/fakeverifier-data/internal/hub"
	"github.com/pdevulapally/fakeverifier-data/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// fixLabelsCmd represents the fix-labels command
var fixLabelsCmd = &cobra.Command{
	Use:   "fix-labels",
	Short: "Map a hub dataset's labels to fake/true and re-publish it",
	Long: `fix-labels loads every split of a hub dataset, maps each label to 1 when it
is "true" or "mostly-true" (ignoring case and surrounding whitespace) and to
0 otherwise, casts the label column to a ClassLabel [fake, true] and pushes
the result back in a single commit. The dataset is then made public.

Example:
  HF_TOKEN=hf_... fakeverifier fix-labels
  FAKEVERIFIER_DATASET=alice/fakeverifier-dataset fakeverifier fix-labels`,
	Args: cobra.NoArgs,
	RunE: runFixLabels,
}

func init() {
	rootCmd.AddCommand(fixLabelsCmd)
}

func runFixLabels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if err := cfg.ValidateForLabels(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	limiter := newLimiter(cfg)
	client := hub.NewClient(hubOptions(cfg, cfg.Hub.Endpoint, limiter))
	rows := hub.NewRowsClient(hubOptions(cfg, cfg.Hub.DatasetsServer, limiter))

	normalizer := pipeline.NewNormalizer(cfg, client, rows, pipeline.NewProgress(cmd.ErrOrStderr()))
	_, err = normalizer.Run(ctx)
	return err
}
