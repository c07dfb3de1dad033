package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information (injected at build time via -ldflags)
var (
	Version   = "dev"     // Set via -ldflags "-X github.com/jaskrrish/qkd-otp/internal/cli.Version=x.y.z"
	GitCommit = "unknown" // Set via -ldflags "-X github.com/jaskrrish/qkd-otp/internal/cli.GitCommit=abc123"
)

func newVersionCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := opts.printer(cmd)
			if err != nil {
				return err
			}

			info := map[string]string{
				"version":    Version,
				"commit":     GitCommit,
				"go_version": runtime.Version(),
				"os":         runtime.GOOS,
				"arch":       runtime.GOARCH,
			}

			switch printer.format {
			case OutputFormatJSON:
				return printer.printJSON(info)
			case OutputFormatYAML:
				return printer.printYAML(info)
			default:
				fmt.Fprintf(printer.writer, "qkdotp version %s\n", Version)
				fmt.Fprintf(printer.writer, "Git commit: %s\n", GitCommit)
				fmt.Fprintf(printer.writer, "Go version: %s\n", runtime.Version())
				fmt.Fprintf(printer.writer, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
				return nil
			}
		},
	}
}
