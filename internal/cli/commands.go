package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newEncryptCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <message>",
		Short: "Derive a fresh BB84 key and encrypt a message",
		Long: `Encrypt runs a simulated BB84 exchange sized to the message, keeps the
sifted bits as a one-time key and XORs the message with it.

Multiple arguments are joined with single spaces.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := opts.printer(cmd)
			if err != nil {
				return err
			}

			service, logger, err := opts.newService(cmd)
			if err != nil {
				return err
			}

			result, err := service.Encrypt(strings.Join(args, " "))
			if err != nil {
				return err
			}

			logger.Debug("message encrypted",
				"exchange_id", result.ExchangeID.String(),
				"raw_count", result.RawCount,
				"sifted_count", result.SiftedCount)

			return printer.PrintEncryptResult(result, opts.Verbose)
		},
	}
}

func newDecryptCommand(opts *Options) *cobra.Command {
	var ciphertext, key string

	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt 0/1 ciphertext with its key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := opts.printer(cmd)
			if err != nil {
				return err
			}

			service, _, err := opts.newService(cmd)
			if err != nil {
				return err
			}

			result, err := service.Decrypt(ciphertext, key)
			if err != nil {
				return err
			}

			return printer.PrintDecryptResult(result)
		},
	}

	cmd.Flags().StringVar(&ciphertext, "ciphertext", "", "ciphertext bits (whitespace ignored)")
	cmd.Flags().StringVar(&key, "key", "", "key bits (whitespace ignored)")
	_ = cmd.MarkFlagRequired("ciphertext")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func newSiftCommand(opts *Options) *cobra.Command {
	var targetBits, rawCount int

	cmd := &cobra.Command{
		Use:   "sift",
		Short: "Run a standalone BB84 exchange and report sifting statistics",
		Long: `Sift exchanges --raw bits (default: --bits times the oversample factor)
and reports how many survived basis reconciliation, along with the
probability that the exchange would fall short of --bits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if targetBits <= 0 {
				return fmt.Errorf("--bits must be positive, got %d", targetBits)
			}

			printer, err := opts.printer(cmd)
			if err != nil {
				return err
			}

			service, _, err := opts.newService(cmd)
			if err != nil {
				return err
			}

			raw := rawCount
			if raw <= 0 {
				if raw, err = service.Protocol().RawCount(targetBits); err != nil {
					return err
				}
			}

			stats, err := service.Sift(raw, targetBits)
			if err != nil {
				return err
			}

			return printer.PrintSiftingStats(stats, targetBits)
		},
	}

	cmd.Flags().IntVar(&targetBits, "bits", 0, "key bits the exchange must cover")
	cmd.Flags().IntVar(&rawCount, "raw", 0, "raw bits to exchange (overrides oversampling)")
	_ = cmd.MarkFlagRequired("bits")

	return cmd
}
