package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yroh0840/manga-relay/config"
	"github.com/yroh0840/manga-relay/logger"
	"github.com/yroh0840/manga-relay/maintenance"
)

func root() *cobra.Command {
	var (
		opts     maintenance.Options
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:   "admin_delete (--koma ID | --comic ID)",
		Short: "Soft or hard delete komas and comics in the manga relay SQLite database",
		Example: `  admin_delete --koma 23
  admin_delete --comic 10
  admin_delete --koma 23 --hard --with-images --yes
  admin_delete --comic 10 --hard --with-images --yes --db /path/to/comic_relay.sqlite --uploads /path/to/uploads`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewWithWriter(os.Stderr, logLevel, "development").Level(levelOrWarn(logLevel))
			runner := maintenance.NewRunner(cmd.OutOrStdout(), log)
			return runner.Run(opts)
		},
	}

	flags := rootCmd.Flags()
	flags.Int64Var(&opts.KomaID, "koma", 0, "koma id to delete")
	flags.Int64Var(&opts.ComicID, "comic", 0, "comic id to delete (all komas)")
	flags.StringVar(&opts.DBPath, "db", config.DefaultDatabasePath, "path to sqlite db file")
	flags.StringVar(&opts.UploadsDir, "uploads", "uploads", "uploads directory path")
	flags.BoolVar(&opts.Hard, "hard", false, "perform hard delete (DB row removal). Default = soft (is_deleted=1)")
	flags.BoolVar(&opts.WithImages, "with-images", false, "when hard deleting, also remove image files from the uploads directory")
	flags.BoolVar(&opts.NoVacuum, "no-vacuum", false, "do not run VACUUM at end")
	flags.BoolVar(&opts.Yes, "yes", false, "auto-confirm destructive actions (required for --hard)")
	flags.StringVar(&logLevel, "log-level", "", "diagnostic log level on stderr (debug, info, warn, error)")

	rootCmd.MarkFlagsMutuallyExclusive("koma", "comic")
	rootCmd.MarkFlagsOneRequired("koma", "comic")

	return rootCmd
}

// levelOrWarn keeps stderr quiet unless a level was asked for
func levelOrWarn(level string) zerolog.Level {
	if level == "" {
		return zerolog.WarnLevel
	}
	return logger.ParseLevel(level)
}
