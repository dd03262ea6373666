package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cmsblog "github.com/goliatone/go-cms-blog"
	blogcommands "github.com/goliatone/go-cms-blog/commands"
	bloghttp "github.com/goliatone/go-cms-blog/internal/http"
)

const envPrefix = "BLOG"

var moduleBuilder = func(cfg cmsblog.Config) (*cmsblog.Module, error) {
	return cmsblog.New(cfg)
}

type rootOptions struct {
	driver  string
	dsn     string
	devMode bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "blog",
		Short:         "Serve and manage the blog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.driver, "driver", "", "storage driver override (memory, sqlite, postgres)")
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "storage DSN override")
	root.PersistentFlags().BoolVar(&opts.devMode, "dev", false, "developer mode, disables response caching")

	root.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newImportCommand(opts),
		newClearCacheCommand(opts),
		newGenerateCommand(opts),
	)
	return root
}

func (o *rootOptions) config() (cmsblog.Config, error) {
	cfg, err := cmsblog.LoadConfigFromEnv(envPrefix)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if o.driver != "" {
		cfg.Storage.Driver = o.driver
	}
	if o.dsn != "" {
		cfg.Storage.DSN = o.dsn
	}
	if o.devMode {
		cfg.Website.DeveloperMode = true
	}
	return cfg, nil
}

func (o *rootOptions) module() (*cmsblog.Module, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	module, err := moduleBuilder(cfg)
	if err != nil {
		return nil, fmt.Errorf("build module: %w", err)
	}
	return module, nil
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		migrate    bool
		clearEvery time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the website, JSON API and metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			module, err := moduleBuilder(cfg)
			if err != nil {
				return fmt.Errorf("build module: %w", err)
			}
			defer module.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if migrate {
				if err := module.Migrate(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}

			if clearEvery > 0 {
				scheduler := newTickerScheduler(ctx, func(err error) {
					fmt.Fprintf(cmd.ErrOrStderr(), "scheduled cache clear: %v\n", err)
				})
				defer scheduler.Wait()
				_, err := module.RegisterCommands(blogcommands.RegistrationOptions{
					CronRegistrar:  scheduler.Registrar(),
					ClearCacheCron: everyPrefix + clearEvery.String(),
					SkipMarkdown:   true,
				})
				if err != nil {
					return fmt.Errorf("register commands: %w", err)
				}
			}

			srv := bloghttp.NewServer(cfg.HTTP, module.Handler())
			errCh := make(chan error, 1)
			go func() {
				fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", cfg.HTTP.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			return bloghttp.Shutdown(srv, 10*time.Second)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply the schema before serving")
	cmd.Flags().DurationVar(&clearEvery, "clear-cache-every", 0, "clear the website cache on this interval (0 disables)")
	return cmd
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the blog tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			module, err := opts.module()
			if err != nil {
				return err
			}
			defer module.Close()
			if err := module.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	var (
		directory  string
		importOpts cmsblog.ImportOptions
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import Markdown posts from the content directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			module, err := opts.module()
			if err != nil {
				return err
			}
			defer module.Close()
			if err := module.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			result, err := module.ImportMarkdown(cmd.Context(), directory, importOpts)
			if err != nil {
				return fmt.Errorf("import %s: %w", directory, err)
			}
			out := cmd.OutOrStdout()
			for _, route := range result.Created {
				fmt.Fprintf(out, "created %s\n", route)
			}
			for _, route := range result.Updated {
				fmt.Fprintf(out, "updated %s\n", route)
			}
			for _, route := range result.Skipped {
				fmt.Fprintf(out, "skipped %s\n", route)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&directory, "directory", ".", "directory to import, relative to the content root")
	flags.StringVar(&importOpts.DefaultCategory, "category", "", "category title for documents without one")
	flags.StringVar(&importOpts.DefaultAuthor, "author", "", "blogger short name for documents without one")
	flags.BoolVar(&importOpts.CreateMissingCategories, "create-categories", false, "create categories referenced by documents")
	flags.BoolVar(&importOpts.DryRun, "dry-run", false, "report changes without writing")
	return cmd
}

func newClearCacheCommand(opts *rootOptions) *cobra.Command {
	var routes []string
	cmd := &cobra.Command{
		Use:   "clear-cache",
		Short: "Clear the website response cache, or only the given routes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			module, err := opts.module()
			if err != nil {
				return err
			}
			defer module.Close()
			if len(routes) > 0 {
				return module.InvalidateRoutes(cmd.Context(), routes...)
			}
			return module.ClearWebsiteCache(cmd.Context())
		},
	}
	cmd.Flags().StringSliceVar(&routes, "route", nil, "route to invalidate (repeatable)")
	return cmd
}

func newGenerateCommand(opts *rootOptions) *cobra.Command {
	var (
		output    string
		buildOpts cmsblog.BuildOptions
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Export the published site as static files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			if output != "" {
				cfg.Generator.OutputDir = output
			}
			module, err := moduleBuilder(cfg)
			if err != nil {
				return fmt.Errorf("build module: %w", err)
			}
			defer module.Close()
			if err := module.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			result, err := module.GenerateSite(cmd.Context(), buildOpts)
			if result != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "built %d pages, skipped %d, feeds %d\n",
					result.PagesBuilt, result.PagesSkipped, result.FeedsBuilt)
			}
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&output, "output", "", "output directory override")
	flags.StringSliceVar(&buildOpts.Routes, "route", nil, "route to export (repeatable, default all)")
	flags.BoolVar(&buildOpts.DryRun, "dry-run", false, "render without writing files")
	return cmd
}
