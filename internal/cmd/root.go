// Package cmd wires the vibecoder CLI commands.
package cmd

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vibecoder/internal/api"
	"github.com/felixgeelhaar/vibecoder/internal/config"
	"github.com/felixgeelhaar/vibecoder/internal/credentials"
	"github.com/felixgeelhaar/vibecoder/internal/log"
)

var (
	cfgFile    string
	apiURLFlag string
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vibecoder",
	Short: "Turn a plain-language change request into a merged code change",
	Long: `vibecoder takes a natural-language description of a code change,
lets you review the interpreted request and its implementation plan,
then executes the change remotely and delivers it as a GitHub pull request.

Authenticate once with 'vibecoder auth', then describe what you want:

  vibecoder run "add a health check endpoint" --repo https://github.com/acme/api`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a cancellable context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vibecoder/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "backend API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func initConfig() error {
	path := cfgFile
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if apiURLFlag != "" {
		loaded.APIBaseURL = apiURLFlag
	}
	if logLevel != "" {
		loaded.LogLevel = logLevel
	}
	cfg = loaded

	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(cfg.LogLevel)
	log.SetDefaultLogger(log.New(logCfg))
	return nil
}

// newAPIClient builds the backend client from the loaded configuration.
func newAPIClient() *api.Client {
	return api.NewClient(cfg.APIBaseURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
		api.WithLogger(log.DefaultLogger()),
	)
}

// credentialManager builds the manager over the on-disk credential store.
func credentialManager() (*credentials.Manager, error) {
	path, err := credentials.DefaultPath()
	if err != nil {
		return nil, err
	}
	return credentials.NewManager(credentials.NewFileStore(path)), nil
}
