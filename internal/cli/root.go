package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdevulapally/fakeverifier-data/internal/logger"
	"github.com/pdevulapally/fakeverifier-data/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "fakeverifier v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fakeverifier",
	Short: "FakeVerifier dataset tooling",
	Long: `fakeverifier prepares and publishes the FakeVerifier text-classification
dataset on the dataset hub.

  import-liar   download the LIAR splits, convert them to claim records
                and upload them to HF_DATASET_REPO
  fix-labels    map a hub dataset's labels to fake/true and re-publish it

Credentials and targets come from the environment (HUGGINGFACE_TOKEN or
HF_TOKEN, HF_DATASET_REPO, LIAR_*_URL), a .env file, or the config file.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.fakeverifier/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	bindConfig(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// configDir is the directory holding the default config file
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".fakeverifier"), nil
}

// bindConfig registers defaults and environment variables. Keys listed in
// model.EnvVars read the named variables in order; every other key reads
// FAKEVERIFIER_<SECTION>_<KEY>.
func bindConfig(v *viper.Viper) {
	d := model.DefaultConfig()
	defaults := map[string]any{
		"hub.token":                         d.Hub.Token,
		"hub.endpoint":                      d.Hub.Endpoint,
		"hub.datasets_server":               d.Hub.DatasetsServer,
		"hub.dataset_repo":                  d.Hub.DatasetRepo,
		"labels.dataset_repo":               d.Labels.DatasetRepo,
		"labels.names":                      d.Labels.Names,
		"liar.train_url":                    d.LIAR.TrainURL,
		"liar.valid_url":                    d.LIAR.ValidURL,
		"liar.test_url":                     d.LIAR.TestURL,
		"liar.archive_url":                  d.LIAR.ArchiveURL,
		"http.timeout":                      d.HTTP.Timeout,
		"http.user_agent":                   d.HTTP.UserAgent,
		"http.max_body_bytes":               d.HTTP.MaxBodyBytes,
		"http.insecure_tls":                 d.HTTP.InsecureTLS,
		"http.respect_robots":               d.HTTP.RespectRobots,
		"http.http_proxy":                   d.HTTP.HTTPProxy,
		"http.https_proxy":                  d.HTTP.HTTPSProxy,
		"http.no_proxy":                     d.HTTP.NoProxy,
		"cache.enabled":                     d.Cache.Enabled,
		"cache.dir":                         d.Cache.Dir,
		"cache.ttl":                         d.Cache.TTL,
		"rate_limiting.requests_per_second": d.RateLimiting.RequestsPerSecond,
		"rate_limiting.burst_size":          d.RateLimiting.BurstSize,
		"output.dir":                        d.Output.Dir,
		"output.verbose":                    d.Output.Verbose,
		"log.level":                         d.Log.Level,
		"log.json":                          d.Log.JSON,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("FAKEVERIFIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, envs := range model.EnvVars {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}
}

// loadConfig decodes the effective configuration and sets up logging
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	for _, s := range []*string{&cfg.Hub.Token, &cfg.Hub.DatasetRepo, &cfg.Labels.DatasetRepo,
		&cfg.LIAR.TrainURL, &cfg.LIAR.ValidURL, &cfg.LIAR.TestURL} {
		*s = strings.TrimSpace(*s)
	}

	if cfg.Output.Verbose {
		cfg.Log.Level = string(logger.DebugLevel)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.JSON)
	return cfg, nil
}
