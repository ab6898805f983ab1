package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/pdevulapally/fakeverifier-data/internal/cache"
	"github.com/pdevulapally/fakeverifier-data/internal/hub"
	"github.com/pdevulapally/fakeverifier-data/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// importLIARCmd represents the import-liar command
var importLIARCmd = &cobra.Command{
	Use:   "import-liar",
	Short: "Download the LIAR splits, convert them and upload them to the hub",
	Long: `import-liar downloads the train, validation and test splits of the LIAR
dataset, converts every row to {claim, label, source, context} and writes
converted/liar_<split>.jsonl. It then creates HF_DATASET_REPO as a private
dataset if needed and uploads each file to data/liar_<split>.jsonl.
Labels keep their original LIAR values (half-true, pants-fire, ...).

Each split is read from its LIAR_*_URL mirror when set, falling back to the
LIAR archive. Any split that cannot be downloaded aborts the run before
anything is uploaded.

Example:
  HF_TOKEN=hf_... HF_DATASET_REPO=alice/liar fakeverifier import-liar
  LIAR_TRAIN_URL=https://mirror.example/train.tsv FAKEVERIFIER_CACHE_ENABLED=false fakeverifier import-liar`,
	Args: cobra.NoArgs,
	RunE: runImportLIAR,
}

func init() {
	rootCmd.AddCommand(importLIARCmd)
}

func runImportLIAR(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if err := cfg.ValidateForImport(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	limiter := newLimiter(cfg)
	client := hub.NewClient(hubOptions(cfg, cfg.Hub.Endpoint, limiter))
	progress := pipeline.NewProgress(cmd.ErrOrStderr())

	importer := pipeline.NewImporter(cfg, client, newFetcher(cfg, limiter), cache.New(cfg.Cache), progress)
	_, err = importer.Run(ctx)
	return err
}
