package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"cardforge/internal/config"
	"cardforge/internal/db"
	"cardforge/internal/definition"
	"cardforge/internal/game"
	"cardforge/internal/ingest"
	"cardforge/internal/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type options struct {
	name       string
	out        string
	definition string
	logLevel   string
}

func main() {
	log.SetFlags(0)
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cobra.CheckErr(newCmd(&options{}).Execute())
}

func newCmd(opts *options) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CARDFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "ingest-cards FILE...",
		Short: "Import official prompt/response packs from card datasets.",
		Long: "Reads one or more card datasets, keeps the cards referenced by official packs " +
			"and merges them into a single pack. The pack is written as JSON and, with " +
			"--definition, attached to a game definition in the database.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := config.NewLogger(opts.logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return run(cmd.Context(), opts, args, cmd.OutOrStdout(), logger)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVarP(&opts.name, "name", "n", ingest.DefaultPackName, "name of the combined pack (env: CARDFORGE_NAME)")
	fs.StringVarP(&opts.out, "out", "o", "-", "where to write the pack JSON, - for stdout, empty to skip (env: CARDFORGE_OUT)")
	fs.StringVarP(&opts.definition, "definition", "d", "", "game definition id to attach the pack to (env: CARDFORGE_DEFINITION)")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level (env: CARDFORGE_LOG_LEVEL)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func run(ctx context.Context, opts *options, paths []string, stdout io.Writer, logger *zap.Logger) error {
	pack, reports, err := ingestFiles(paths, opts.name, logger)
	if err != nil {
		return err
	}
	for i, report := range reports {
		logger.Info("dataset ingested",
			zap.String("file", paths[i]),
			zap.Int("official_packs", report.OfficialPacks),
			zap.Int("prompts", report.Prompts),
			zap.Int("responses", report.Responses),
			zap.Int("skipped", report.Skipped),
		)
	}

	if opts.definition != "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		conn, err := db.Open(cfg)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		svc := definition.NewService(store.NewGorm(conn), logger.Named("definition"))
		pack, err = svc.AttachOfficialPack(ctx, opts.definition, pack)
		if err != nil {
			return fmt.Errorf("attach pack: %w", err)
		}
	}

	return writePack(opts.out, stdout, pack)
}

// ingestFiles runs the pipeline over every dataset and merges the results
// into one pack.
func ingestFiles(paths []string, name string, logger *zap.Logger) (game.Pack, []ingest.Report, error) {
	if len(paths) == 0 {
		return game.Pack{}, nil, errors.New("at least one dataset file is required")
	}
	packs := make([]game.Pack, 0, len(paths))
	reports := make([]ingest.Report, 0, len(paths))
	for _, path := range paths {
		ds, err := readDataset(path)
		if err != nil {
			return game.Pack{}, nil, err
		}
		result := ingest.Run(ds, ingest.Options{PackName: name, Logger: logger})
		packs = append(packs, result.Pack)
		reports = append(reports, result.Report)
	}
	if len(packs) == 1 {
		return packs[0], reports, nil
	}
	return ingest.CombinePacks(uuid.NewString(), name, packs...), reports, nil
}

func readDataset(path string) (ingest.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return ingest.Dataset{}, err
	}
	defer file.Close()
	ds, err := ingest.Decode(file)
	if err != nil {
		return ingest.Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

func writePack(out string, stdout io.Writer, pack game.Pack) error {
	if out == "" {
		return nil
	}
	data, err := json.MarshalIndent(pack, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if out == "-" {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(out, data, 0o644)
}
