package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/jddeal/go-iasi/l1c"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "iasi-serve",
	Short: "Serve IASI L1C products over HTTP",
	Long: `Serve the records, main header, geolocation and quicklooks of IASI L1C
products stored in a local directory or an S3 bucket.

Examples:
  iasi-serve --data-dir ./products
  iasi-serve --s3-bucket my-bucket --s3-prefix iasi/l1c --addr :9000
  iasi-serve --config ./iasi-serve.yaml`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		level, err := cfg.LogLevel()
		if err != nil {
			return err
		}
		logrus.SetLevel(level)

		source, err := newSource(cfg)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:         cfg.Addr,
			WriteTimeout: cfg.Timeout.Write,
			ReadTimeout:  cfg.Timeout.Read,
			IdleTimeout:  cfg.Timeout.Idle,
			Handler:      newRouter(&server{source: source}),
		}

		logrus.Info(color.GreenString("listening on %s", cfg.Addr))
		return srv.ListenAndServe()
	},
}

func init() {
	rootCmd.Flags().String("config", "", "YAML configuration file")
	rootCmd.Flags().String("addr", "", "listen address")
	rootCmd.Flags().String("data-dir", "", "directory holding the products")
	rootCmd.Flags().String("s3-bucket", "", "bucket holding the products, instead of --data-dir")
	rootCmd.Flags().String("s3-prefix", "", "key prefix of the products in the bucket")
	rootCmd.Flags().String("s3-region", "", "region of the bucket")
	rootCmd.Flags().Int("workers", 0, "goroutines decoding MDRs")
	rootCmd.Flags().StringP("log-level", "l", "", "logging level (error, info, debug, trace)")
}

// resolveConfig loads --config, or the defaults, and applies the flags that
// were set explicitly.
func resolveConfig(cmd *cobra.Command) (*Config, error) {
	flags := cmd.Flags()

	cfg := DefaultConfig()
	if configPath, _ := flags.GetString("config"); configPath != "" {
		var err error
		if cfg, err = LoadConfig(configPath); err != nil {
			return nil, err
		}
	}

	if flags.Changed("addr") {
		cfg.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("s3-bucket") {
		cfg.S3.Bucket, _ = flags.GetString("s3-bucket")
	}
	if flags.Changed("s3-prefix") {
		cfg.S3.Prefix, _ = flags.GetString("s3-prefix")
	}
	if flags.Changed("s3-region") {
		cfg.S3.Region, _ = flags.GetString("s3-region")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	return cfg, nil
}

func newSource(cfg *Config) (productSource, error) {
	opts := []l1c.Option{l1c.WithWorkers(cfg.Workers)}
	if cfg.S3.Bucket != "" {
		logrus.Infof("serving s3://%s/%s", cfg.S3.Bucket, cfg.S3.Prefix)
		return newS3Source(cfg.S3, opts)
	}
	logrus.Infof("serving %s", cfg.DataDir)
	return &localSource{dir: cfg.DataDir, opts: opts}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
