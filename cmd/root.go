package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nguyentranbao-ct/meritflow/internal/app"
	"github.com/nguyentranbao-ct/meritflow/internal/config"
	"github.com/nguyentranbao-ct/meritflow/internal/ingest"
	"github.com/nguyentranbao-ct/meritflow/internal/server"
	"github.com/nguyentranbao-ct/meritflow/pkg/logger"
	"github.com/nguyentranbao-ct/meritflow/pkg/logger/log"
	"github.com/nguyentranbao-ct/meritflow/pkg/util"
	"github.com/spf13/cobra"
)

var conf *config.Config

var rootCmd = &cobra.Command{
	Use:           "meritflow",
	Short:         "Engagement API and seed data tooling",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		conf, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return logger.Init(conf.Log.Level, conf.Log.Development)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd(), convertCmd(), seedCmd())
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.ValidateStore(); err != nil {
				return err
			}
			app.Invoke(conf, server.StartServer).Run()
			return nil
		},
	}
}

func convertCmd() *cobra.Command {
	var input, output, rules string
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert the CSV exports into JSON seed artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrideSeed(input, output, rules)
			if err := conf.ValidateSeed(); err != nil {
				return err
			}
			ruleSet, err := ingest.LoadRules(conf.Seed.RulesFile)
			if err != nil {
				return err
			}
			converter, err := ingest.NewConverter(ruleSet)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			report, err := converter.Run(ctx, conf.Seed.InputDir, conf.Seed.OutputDir)
			if err != nil {
				return err
			}
			log.Infow(ctx, "conversion finished",
				"written", len(report.Written),
				"skipped", len(report.Skipped),
				"failed", len(report.Failed),
				"row_issues", len(report.Issues),
			)
			if !report.OK() {
				log.Errorw(ctx, "files failed to convert", "files", util.ConvertList(report.Failed, func(f ingest.FileFailure) string {
					return f.File + ": " + f.Reason
				}))
				return fmt.Errorf("%d of %d files failed to convert", len(report.Failed), len(report.Failed)+len(report.Written))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "directory holding the CSV exports (SEED_INPUT_DIR)")
	cmd.Flags().StringVar(&output, "output", "", "directory receiving the JSON artifacts (SEED_OUTPUT_DIR)")
	cmd.Flags().StringVar(&rules, "rules", "", "YAML conversion rules replacing the built-in ones (SEED_RULES_FILE)")
	return cmd
}

func seedCmd() *cobra.Command {
	var dir, rules string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upload the JSON seed artifacts into the document store",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrideSeed("", dir, rules)
			if err := conf.ValidateSeed(); err != nil {
				return err
			}
			ruleSet, err := ingest.LoadRules(conf.Seed.RulesFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, closeStore, err := app.OpenStore(ctx, conf)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeStore(ctx); err != nil {
					log.Warnw(ctx, "close store", "error", err)
				}
			}()

			report, err := ingest.NewSeeder(store, ruleSet, conf).Run(ctx, conf.Seed.OutputDir)
			if err != nil {
				return err
			}
			for _, f := range report.Failed {
				log.Errorw(ctx, "document rejected", "collection", f.Collection, "id", f.ID, "error", f.Reason)
			}
			log.Infow(ctx, "seeding finished", "uploaded", report.Uploaded, "missing", report.Missing, "failed", len(report.Failed))
			if !report.OK() {
				return fmt.Errorf("%d documents were rejected", len(report.Failed))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory holding the JSON artifacts (SEED_OUTPUT_DIR)")
	cmd.Flags().StringVar(&rules, "rules", "", "YAML conversion rules replacing the built-in ones (SEED_RULES_FILE)")
	return cmd
}

func overrideSeed(input, output, rules string) {
	if input != "" {
		conf.Seed.InputDir = input
	}
	if output != "" {
		conf.Seed.OutputDir = output
	}
	if rules != "" {
		conf.Seed.RulesFile = rules
	}
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal(err)
	}
}
