package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jaskrrish/qkd-otp/internal/models/qkd"
	"gopkg.in/yaml.v3"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintEncryptResult prints an encryption outcome. Debug sequences are
// only shown in text mode when verbose is set.
func (p *Printer) PrintEncryptResult(result *qkd.EncryptResult, verbose bool) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(result)
	case OutputFormatYAML:
		return p.printYAML(result)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Exchange:        %s\n", result.ExchangeID)
		fmt.Fprintf(p.writer, "Raw bits:        %d\n", result.RawCount)
		fmt.Fprintf(p.writer, "Sifted bits:     %d (%.1f%%)\n", result.SiftedCount, result.PercentKept*100)
		fmt.Fprintf(p.writer, "Usable key:      %d bytes\n", result.UsableKeyBytes)
		fmt.Fprintf(p.writer, "Fingerprint:     %s\n", result.KeyFingerprint)
		fmt.Fprintf(p.writer, "Key:             %s\n", result.KeyUsedBits)
		fmt.Fprintf(p.writer, "Ciphertext:      %s\n", result.CiphertextBits)
		if verbose {
			fmt.Fprintf(p.writer, "Sifted key:      %s\n", result.FullSiftedKeyBits)
			fmt.Fprintf(p.writer, "Sender bits:     %s\n", result.SenderBitsDebug)
			fmt.Fprintf(p.writer, "Sender bases:    %s\n", result.SenderBasesDebug)
			fmt.Fprintf(p.writer, "Receiver bases:  %s\n", result.ReceiverBasesDebug)
			fmt.Fprintf(p.writer, "Shortfall prob.: %.3g\n", result.ShortfallProbability)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintDecryptResult prints a recovered plaintext
func (p *Printer) PrintDecryptResult(result *qkd.DecryptResult) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(result)
	case OutputFormatYAML:
		return p.printYAML(result)
	case OutputFormatText:
		fmt.Fprintln(p.writer, result.Plaintext)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSiftingStats prints the statistics of a standalone exchange
func (p *Printer) PrintSiftingStats(stats *qkd.SiftingStats, targetBits int) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"target_bits": targetBits,
			"stats":       stats,
		})
	case OutputFormatYAML:
		return p.printYAML(map[string]interface{}{
			"target_bits": targetBits,
			"stats":       stats,
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Target bits:     %d\n", targetBits)
		fmt.Fprintf(p.writer, "Raw bits:        %d\n", stats.RawCount)
		fmt.Fprintf(p.writer, "Sifted bits:     %d (%.1f%%)\n", stats.SiftedCount, stats.PercentKept*100)
		fmt.Fprintf(p.writer, "Shortfall prob.: %.3g\n", stats.ShortfallProbability)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error in the configured format
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(qkd.NewErrorResponse(err))
	case OutputFormatYAML:
		return p.printYAML(qkd.NewErrorResponse(err))
	default:
		if errors.Is(err, qkd.ErrEmptyInput) {
			_, werr := fmt.Fprintln(p.writer, "Nothing to do: input is empty")
			return werr
		}
		_, werr := fmt.Fprintf(p.writer, "Error: %v\n", err)
		return werr
	}
}

// printJSON prints data as indented JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (p *Printer) printYAML(data interface{}) error {
	encoder := yaml.NewEncoder(p.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}
