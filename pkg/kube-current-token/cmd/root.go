package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/futuretea/kube-current-token/pkg/config"
	"github.com/futuretea/kube-current-token/pkg/kubeconfig"
	"github.com/futuretea/kube-current-token/pkg/logging"
	"github.com/futuretea/kube-current-token/pkg/output"
	"github.com/futuretea/kube-current-token/pkg/redact"
	"github.com/futuretea/kube-current-token/pkg/resolver"
	"github.com/futuretea/kube-current-token/pkg/version"
)

// EnvPrefix is the prefix of environment variables that override settings
const EnvPrefix = "KUBE_CURRENT_TOKEN"

// Exit codes used with --strict-exit-codes
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitUserNotFound = 2
	ExitParseError   = 3
)

// notFoundMessage is printed when no user entry matches the current context
const notFoundMessage = "user not found"

// IOStreams represents standard input, output, and error streams
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// ExitError carries a process exit code. Its message has already been written to the output stream.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps the result of Execute to a process exit status
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// NewCurrentToken creates a new cobra command for kube-current-token
func NewCurrentToken(streams IOStreams) *cobra.Command {
	cfg := config.DefaultConfig()
	var configFile string

	cmd := &cobra.Command{
		Use:   version.BinaryName,
		Short: "Print the token of the current kubeconfig user",
		Long: `kube-current-token reads ~/.kube/config, finds the user entry named after
the current context and prints its token on standard output.

When no entry matches, "user not found" is printed instead. A kubeconfig that
cannot be parsed has its parse error printed. Both exit with status 0 unless
--strict-exit-codes is set, in which case they exit with 2 and 3.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd, configFile)
			if err != nil {
				return err
			}
			return run(settings, streams)
		},
	}

	// Set output streams for the command
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.ErrOut)

	cmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML settings file")
	cmd.Flags().StringVar(&cfg.Kubeconfig, "kubeconfig", cfg.Kubeconfig, "Path to the kubeconfig file")
	cmd.Flags().IntVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (0-9)")
	cmd.Flags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format (token, exec-credential, json, yaml)")
	cmd.Flags().StringVar(&cfg.Lookup, "lookup", cfg.Lookup, "How the user is found (user-name, context)")
	cmd.Flags().BoolVar(&cfg.StrictExitCodes, "strict-exit-codes", cfg.StrictExitCodes, "Exit non-zero when the user is not found or the kubeconfig cannot be parsed")

	cmd.AddCommand(newVersionCommand(streams))

	return cmd
}

// loadSettings layers the settings file, environment and flags, in increasing precedence.
func loadSettings(cmd *cobra.Command, configFile string) (*config.StaticConfig, error) {
	base, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("kubeconfig", base.Kubeconfig)
	v.SetDefault("log_level", base.LogLevel)
	v.SetDefault("output", base.Output)
	v.SetDefault("lookup", base.Lookup)
	v.SetDefault("strict_exit_codes", base.StrictExitCodes)

	for key, flag := range map[string]string{
		"kubeconfig":        "kubeconfig",
		"log_level":         "log-level",
		"output":            "output",
		"lookup":            "lookup",
		"strict_exit_codes": "strict-exit-codes",
	} {
		f := cmd.Flags().Lookup(flag)
		if !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}

	settings := &config.StaticConfig{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

// run resolves the token once and writes exactly one result to streams.Out
func run(cfg *config.StaticConfig, streams IOStreams) error {
	logging.Initialize(cfg.LogLevel, streams.ErrOut)

	r, err := resolver.New(cfg.Kubeconfig, cfg.Lookup)
	if err != nil {
		return err
	}

	result, err := r.Resolve()
	if err != nil {
		return report(cfg, streams, err)
	}
	log.Info().Str("context", result.Context).Str("user", result.User).Str("token", redact.Token(result.Token)).Msg("token resolved")

	out, err := output.NewFormatter().Format(result, cfg.Output)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(streams.Out, out)
	return err
}

// report prints lookup misses and parse failures on the output stream. Any other
// error is returned wrapped with the kubeconfig path.
func report(cfg *config.StaticConfig, streams IOStreams, err error) error {
	var parseErr *kubeconfig.ParseError
	code := ExitOK

	switch {
	case errors.Is(err, resolver.ErrUserNotFound):
		fmt.Fprintln(streams.Out, notFoundMessage)
		code = ExitUserNotFound
	case errors.As(err, &parseErr):
		log.Warn().Err(parseErr.Err).Str("path", parseErr.Path).Msg("kubeconfig could not be parsed")
		fmt.Fprintln(streams.Out, parseErr.Err.Error())
		code = ExitParseError
	default:
		return fmt.Errorf("failed to resolve token from %s: %w", cfg.Kubeconfig, err)
	}

	if !cfg.StrictExitCodes {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// newVersionCommand creates the version command
func newVersionCommand(streams IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(streams.Out, "%s\n", version.GetVersionInfo())
		},
	}

	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.ErrOut)

	return cmd
}
