// Package commands implements the itsdone command line: the same dashboard
// the server exposes, operated directly on the configured storage.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/benvon/itsdone/internal/agent"
	"github.com/benvon/itsdone/internal/config"
	"github.com/benvon/itsdone/internal/database"
	"github.com/benvon/itsdone/internal/logger"
	"github.com/benvon/itsdone/internal/services/ai"
	"github.com/benvon/itsdone/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	storageURL string
	debug      bool

	// kv replaces the configured storage; tests set it
	kv database.KV
	// provider replaces the configured language model; tests set it
	provider ai.Provider
}

// NewRootCmd creates the itsdone command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "itsdone",
		Short:         "it's_done. productivity dashboard",
		Long:          "Manage tasks, notes, the journal and the focus timer, and let the AI agent act on them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.storageURL, "storage", "", "Storage URL (overrides ITSDONE_STORAGE_URL)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newTaskCmd(opts),
		newFocusCmd(opts),
		newNotesCmd(opts),
		newJournalCmd(opts),
		newPinCmd(opts),
		newTimerCmd(opts),
		newAskCmd(opts),
		newChatCmd(opts),
		newResearchCmd(opts),
		newRenderCmd(),
		newWatchCmd(opts),
	)
	return cmd
}

// app is everything a command needs, opened from configuration
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	kv      database.KV
	store   *store.Store
	gateway *ai.Gateway
}

func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.storageURL != "" {
		cfg.StorageURL = opts.storageURL
	}

	log := zap.NewNop()
	if opts.debug || cfg.ServerDebugMode {
		if log, err = logger.NewDevelopmentLogger(true); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	kv := opts.kv
	if kv == nil {
		if kv, err = database.Open(cfg.StorageURL); err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
	}

	s := store.New(kv, log)
	s.Load(ctx)

	provider := opts.provider
	if provider == nil && cfg.AIConfigured() {
		provider, err = ai.DefaultRegistry(log).GetProvider(cfg.AIProvider, cfg.ProviderSettings(opts.debug))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: AI features disabled: %v\n", err)
			provider = nil
		}
	}

	return &app{
		cfg:     cfg,
		logger:  log,
		kv:      kv,
		store:   s,
		gateway: ai.NewGateway(provider, log),
	}, nil
}

func (a *app) session() (*agent.Session, error) {
	strategy, err := agent.ParseMatchStrategy(a.cfg.MatchStrategy)
	if err != nil {
		return nil, err
	}
	return agent.NewSession(agent.SessionConfig{
		Store:      a.store,
		Turner:     a.gateway,
		Decomposer: a.gateway,
		Matcher:    agent.NewMatcher(strategy),
		Logger:     a.logger,
	}), nil
}

// Close releases storage. Injected storage belongs to the caller.
func (a *app) Close(opts *rootOptions) {
	_ = a.logger.Sync()
	if opts.kv != nil {
		return
	}
	if err := a.kv.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close storage: %v\n", err)
	}
}

// withApp runs fn against an opened app
func withApp(opts *rootOptions, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), opts)
		if err != nil {
			return err
		}
		defer a.Close(opts)
		return fn(cmd, a, args)
	}
}
