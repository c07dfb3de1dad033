// Package cli implements the qkdotp command line interface.
package cli

import (
	"fmt"
	"io"

	"github.com/jaskrrish/qkd-otp/internal/config"
	"github.com/jaskrrish/qkd-otp/internal/logging"
	qkdcore "github.com/jaskrrish/qkd-otp/internal/qkd"
	"github.com/jaskrrish/qkd-otp/internal/qkd/quantum"
	"github.com/spf13/cobra"
)

// Options holds the global flags shared by every subcommand
type Options struct {
	ConfigFile   string
	Oversample   int
	OutputFormat string
	Verbose      bool

	// source overrides the crypto random source; tests only
	source quantum.RandomSource
}

// NewRootCommand builds the qkdotp command tree
func NewRootCommand() *cobra.Command {
	return newRootCommand(&Options{})
}

func newRootCommand(opts *Options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "qkdotp",
		Short: "BB84 key exchange simulator with a one-time-pad cipher",
		Long: `qkdotp simulates a BB84 quantum key exchange to derive a fresh key
for every message and encrypts the message by XOR with that key.

Ciphertext and keys are exchanged as 0/1 text; whitespace is ignored.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "",
		"config file (YAML)")
	rootCmd.PersistentFlags().IntVar(&opts.Oversample, "oversample", 0,
		"raw bits exchanged per message bit (default from config)")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputFormat, "output", "o", string(OutputFormatText),
		"output format (text, json, yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"verbose output")

	rootCmd.AddCommand(newEncryptCommand(opts))
	rootCmd.AddCommand(newDecryptCommand(opts))
	rootCmd.AddCommand(newSiftCommand(opts))
	rootCmd.AddCommand(newVersionCommand(opts))

	return rootCmd
}

// Execute runs the command tree with args, printing any error to stderr.
// The returned error is non-nil whenever the process should exit 1.
func Execute(args []string, stdout, stderr io.Writer) error {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	return run(cmd, stderr)
}

func run(cmd *cobra.Command, stderr io.Writer) error {
	executed, err := cmd.ExecuteC()
	if err == nil {
		return nil
	}

	format := string(OutputFormatText)
	if f := executed.Flag("output"); f != nil {
		format = f.Value.String()
	}
	_ = NewPrinter(format, stderr).PrintError(err) // best-effort
	return err
}

// loadConfig reads the config file and applies flag overrides
func (o *Options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("oversample") {
		cfg.Protocol.OversampleFactor = o.Oversample
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	if o.Verbose {
		cfg.Log.Level = "debug"
	}

	return cfg, nil
}

// newService builds the core service from the effective configuration
func (o *Options) newService(cmd *cobra.Command) (*qkdcore.Service, *logging.Logger, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	source := o.source
	if source == nil {
		source = quantum.NewCryptoSource()
	}

	service := qkdcore.NewService(source, cfg.Protocol.OversampleFactor)
	service.SetMaxMessageBytes(cfg.Protocol.MaxMessageBytes)

	logger := logging.NewLoggerTo(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	return service, logger, nil
}

func (o *Options) printer(cmd *cobra.Command) (*Printer, error) {
	switch OutputFormat(o.OutputFormat) {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return NewPrinter(o.OutputFormat, cmd.OutOrStdout()), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", o.OutputFormat)
	}
}
