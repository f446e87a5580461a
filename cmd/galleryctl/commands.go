package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/config"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/database"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/repository"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/revocation"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/services"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// cli holds the database opened for the running subcommand.
type cli struct {
	cfg *config.Config
	db  *gorm.DB
}

func rootCommand(cfg *config.Config) *cobra.Command {
	c := &cli{cfg: cfg}

	root := &cobra.Command{
		Use:          "galleryctl",
		Short:        "Photo wall maintenance CLI",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(c.cfg)
			if err != nil {
				return err
			}
			c.db = db
			return database.Migrate(db)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.db == nil {
				return nil
			}
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
	root.PersistentFlags().StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "database driver: sqlite, postgres or mysql")
	root.PersistentFlags().StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "sqlite database file")

	root.AddCommand(
		c.migrateCommand(),
		c.createAdminCommand(),
		c.statsCommand(),
		c.purgeCommand(),
	)
	return root
}

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			// PersistentPreRunE already migrated.
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func (c *cli) createAdminCommand() *cobra.Command {
	var username, password string
	var reset bool

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account or reset its password",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth := services.NewAuthService(repository.NewAdminRepository(c.db), revocation.NewMemoryStore(1), c.cfg)
			ctx := cmd.Context()

			created, err := auth.CreateAdmin(ctx, username, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %q created\n", username)
				return nil
			}
			if !reset {
				return fmt.Errorf("admin %q already exists, pass --reset to change the password", username)
			}
			if err := auth.SetPassword(ctx, username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password for admin %q updated\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", c.cfg.AdminUsername, "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password")
	cmd.Flags().BoolVar(&reset, "reset", false, "overwrite the password of an existing admin")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print gallery statistics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := repository.NewPhotoRepository(c.db).Stats(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
}

func (c *cli) purgeCommand() *cobra.Command {
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete old system logs and expired revoked tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, tokens := database.RunCleanup(c.db, retention, time.Now())
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d log entries and %d revoked tokens\n", logs, tokens)
			return nil
		},
	}
	cmd.Flags().DurationVar(&retention, "retention", c.cfg.LogRetention, "keep system logs newer than this")
	return cmd
}
