package main

import (
	"errors"
	"fmt"
	"os"

	"mdx-go/internal/app"
	"mdx-go/internal/config"
	"mdx-go/internal/database"
	"mdx-go/internal/mdx"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "IndexFiles", "Reprocess").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "mdx",
	Short: "Personal media indexer",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Println("Run 'mdx db migrate' to create the index database.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:       %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:        %s\n", cfg.LogDir)
		fmt.Printf("Database:       %s (%s)\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Extractor:      %s\n", cfg.Extractor.Binary)
		fmt.Printf("Default Volume: %s\n", cfg.Index.DefaultVolume)
		fmt.Printf("Check Strategy: %s\n", cfg.Index.CheckStrategy)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the index database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		if cfg.Database.Type == "sqlite" && cfg.Database.DataDir != "" {
			if err := os.MkdirAll(cfg.Database.DataDir, 0755); err != nil {
				return fmt.Errorf("creating data directory: %w", err)
			}
		}

		store, err := database.NewStoreFromConfig(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer store.Close()

		if err := store.MigrateUp(); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}

		fmt.Printf("Database schema up to date at %s\n", store.Path())
		return nil
	},
}

// index command
var indexCmd = &cobra.Command{
	Use:   "index [PATH]",
	Short: "Index media files under a path",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		req := app.IndexRequest{}
		req.Volume, _ = flags.GetString("volume")
		req.Include, _ = flags.GetStringArray("include")
		req.Exclude, _ = flags.GetStringArray("exclude")
		req.IncludeRegex, _ = flags.GetStringArray("include-regex")
		req.ExcludeRegex, _ = flags.GetStringArray("exclude-regex")
		req.Check, _ = flags.GetString("check")
		req.Depth, _ = flags.GetInt("depth")
		req.Limit, _ = flags.GetInt("limit")
		req.DryRun, _ = flags.GetBool("dry-run")
		verbose, _ := flags.GetBool("verbose")

		a, err := newApp("IndexFiles")
		if err != nil {
			return err
		}
		defer a.Close()

		target := "."
		if len(args) > 0 {
			target = args[0]
		}

		report, err := a.Index(target, req)
		if err != nil {
			return fmt.Errorf("indexing: %w", err)
		}

		if verbose {
			for _, o := range report.Outcomes {
				line := o.Kind.String()
				if o.SkipReason != "" {
					line += " (" + o.SkipReason + ")"
				}
				fmt.Printf("%-40s %s\n", line, o.Fullpath)
			}
		}

		if req.DryRun {
			fmt.Println("Dry run, nothing written.")
		}
		fmt.Println(report.Summary())
		return nil
	},
}

// reprocess command
var reprocessCmd = &cobra.Command{
	Use:   "reprocess FILE",
	Short: "Re-index one file after external modification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Reprocess")
		if err != nil {
			return err
		}
		defer a.Close()

		outcome, err := a.Reprocess(args[0])
		if err != nil {
			if errors.Is(err, mdx.ErrNotIndexed) {
				return fmt.Errorf("%s is not indexed, cannot reprocess", args[0])
			}
			return fmt.Errorf("reprocessing: %w", err)
		}

		if outcome.SkipReason != "" {
			fmt.Printf("%s: %s (%s)\n", outcome.Fullpath, outcome.Kind, outcome.SkipReason)
		} else {
			fmt.Printf("%s: %s\n", outcome.Fullpath, outcome.Kind)
		}
		return nil
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "View the indexed record for a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ShowFile")
		if err != nil {
			return err
		}
		defer a.Close()

		rec, meta, err := a.Show(args[0])
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Println("Not indexed.")
			return nil
		}

		fmt.Printf("Path:      %s\n", rec.Fullpath)
		fmt.Printf("Volume:    %s\n", rec.Volume)
		fmt.Printf("Type:      %s\n", rec.MediaType)
		fmt.Printf("Hash:      %s\n", rec.ContentHash)
		fmt.Printf("Size:      %d\n", rec.Size)
		fmt.Printf("Modified:  %s\n", rec.ModifiedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Indexed:   %s\n", rec.IndexedAt.Format("2006-01-02 15:04:05"))

		if meta == nil {
			return nil
		}
		if meta.Width.Valid && meta.Height.Valid {
			fmt.Printf("Dimensions: %dx%d\n", meta.Width.Int64, meta.Height.Int64)
		}
		if meta.CapturedAt.Valid {
			fmt.Printf("Captured:  %s\n", meta.CapturedAt.Time.Format("2006-01-02 15:04:05"))
		}
		if meta.CameraMake.Valid {
			fmt.Printf("Camera:    %s %s\n", meta.CameraMake.String, meta.CameraModel.String)
		}
		if meta.Latitude.Valid && meta.Longitude.Valid {
			fmt.Printf("GPS:       %.6f, %.6f\n", meta.Latitude.Float64, meta.Longitude.Float64)
		}
		if meta.Keywords.Valid {
			fmt.Printf("Keywords:  %s\n", meta.Keywords.String)
		}
		if meta.Caption.Valid {
			fmt.Printf("Caption:   %s\n", meta.Caption.String)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View index operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("GetHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No index operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.String()
			}
			fmt.Printf("#%d  %-12s  %s  %-10s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
			)
		}
		return nil
	},
}

// skips command
var skipsCmd = &cobra.Command{
	Use:   "skips",
	Short: "View recent skip bookkeeping entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("GetSkips")
		if err != nil {
			return err
		}
		defer a.Close()

		skips, err := a.Skips(limit)
		if err != nil {
			return err
		}

		if len(skips) == 0 {
			fmt.Println("No skipped files recorded.")
			return nil
		}

		for _, s := range skips {
			fmt.Printf("%s  %-35s %s\n",
				s.SkippedAt.Format("2006-01-02 15:04:05"),
				s.Reason,
				s.Fullpath,
			)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// db subcommands
	dbCmd.AddCommand(dbMigrateCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)

	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringP("volume", "V", "", "Volume label to index under (default from config)")
	indexCmd.Flags().StringArray("include", nil, "Include paths containing this substring (repeatable)")
	indexCmd.Flags().StringArray("exclude", nil, "Exclude paths containing this substring (repeatable)")
	indexCmd.Flags().StringArray("include-regex", nil, "Include paths matching this regex (repeatable)")
	indexCmd.Flags().StringArray("exclude-regex", nil, "Exclude paths matching this regex (repeatable)")
	indexCmd.Flags().String("check", "", "Existing-record check fields: fullpath,volume,hash,size,mtime")
	indexCmd.Flags().Int("depth", 0, "Maximum traversal depth (0 = unlimited)")
	indexCmd.Flags().Int("limit", 0, "Stop after this many candidate files (0 = unlimited)")
	indexCmd.Flags().Bool("dry-run", false, "Report what would happen without writing")
	indexCmd.Flags().BoolP("verbose", "v", false, "Print a per-file outcome line")

	rootCmd.AddCommand(reprocessCmd)
	rootCmd.AddCommand(showCmd)

	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")

	rootCmd.AddCommand(skipsCmd)
	skipsCmd.Flags().IntP("limit", "n", 50, "Maximum number of entries to show")
}
