// Package cli implements the catgraph command-line interface.
//
// # Commands
//
// The main commands are:
//   - analyze: Find islands and the longest rabbit hole in the similarity graph
//   - tree: Print the category hierarchy
//   - seed: Generate test topologies (star, chain, complete, random, tree, edge-case)
//   - add, move, delete, link, unlink, list, show: Manage categories
//   - import, export: Move snapshots between stores as JSON
//   - clear: Remove every category and link
//   - serve: Run the HTTP API
//   - cache: Manage the analysis cache
//
// # Logging
//
// Diagnostics go to stderr at info level; --verbose (-v) adds debug output
// and --quiet (-q) keeps only warnings and errors. Loggers are passed through
// context.Context so library calls share the CLI logger.
//
// # Exit Status
//
// See [ExitCode]. Errors carrying a code from pkg/errors are reported with
// their user message only.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/catgraph/pkg/buildinfo"
	"github.com/matzehuels/catgraph/pkg/cache"
	"github.com/matzehuels/catgraph/pkg/config"
	"github.com/matzehuels/catgraph/pkg/pipeline"
	"github.com/matzehuels/catgraph/pkg/store"
	"github.com/matzehuels/catgraph/pkg/store/mongo"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "catgraph"

// LogInfo is the level main starts the logger at.
const LogInfo = log.InfoLevel

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	quiet      bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Catgraph analyzes category hierarchies and similarity graphs",
		Long:          `Catgraph stores a tree of categories with similarity links between them, and finds the islands and the longest rabbit hole of the similarity graph.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose || c.quiet {
				c.SetLogLevel(logLevel(c.verbose, c.quiet))
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "log warnings and errors only")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.seedCommand())
	root.AddCommand(c.clearCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.deleteCommand())
	root.AddCommand(c.linkCommand())
	root.AddCommand(c.unlinkCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig loads the configuration once per invocation.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Store, Cache and Runner Factories
// =============================================================================

// openStore opens the configured store. The caller closes it.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	switch cfg.Store.Driver {
	case config.DriverMongo:
		c.Logger.Debug("opening store", "driver", "mongo", "database", cfg.Store.MongoDatabase)
		return mongo.New(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
			return nil, err
		}
		c.Logger.Debug("opening store", "driver", "sqlite", "path", cfg.Store.Path)
		return store.NewSQLiteStore(cfg.Store.Path)
	}
}

// newCache opens the configured cache. An unreachable backend degrades to
// no caching with a warning rather than failing the command.
func (c *CLI) newCache(ctx context.Context, noCache bool) cache.Cache {
	cfg, err := c.loadConfig()
	if err != nil || noCache {
		return cache.NewNullCache()
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache()
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			c.Logger.Warn("cache disabled", "backend", "redis", "error", err)
			return cache.NewNullCache()
		}
		return cache.NewBreakerCache(rc, cache.BreakerSettings{Name: "redis", Logger: c.Logger})
	default:
		fc, err := cache.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			c.Logger.Warn("cache disabled", "backend", "file", "error", err)
			return cache.NewNullCache()
		}
		return fc
	}
}

// newRunner creates a pipeline runner for CLI use. Cache keys are scoped by
// build version.
func (c *CLI) newRunner(ctx context.Context, st store.Reader, noCache bool) *pipeline.Runner {
	keyer := cache.NewScopedKeyer(nil, buildinfo.Version+":")
	r := pipeline.NewRunner(st, c.newCache(ctx, noCache), keyer, c.Logger)
	if cfg, err := c.loadConfig(); err == nil {
		r.TTL = cfg.Cache.TTL.Duration
	}
	return r
}

// withStore opens the store, runs fn and closes the store.
func (c *CLI) withStore(ctx context.Context, fn func(st store.Store) error) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// analysisDefaults applies configured analysis settings to flags left unset.
func (c *CLI) analysisDefaults(opts *pipeline.Options) {
	cfg, err := c.loadConfig()
	if err != nil {
		return
	}
	if opts.Workers == 0 {
		opts.Workers = cfg.Analysis.Workers
	}
	if opts.SampleSize == 0 {
		opts.SampleSize = cfg.Analysis.SampleSize
	}
}
