package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-mutsim/internal/duckdb"
	"github.com/inodb/vibe-mutsim/internal/genome"
	"github.com/inodb/vibe-mutsim/internal/output"
)

// Output formats
const (
	formatJSON = "json"
	formatTab  = "tab"
	formatVCF  = "vcf"
)

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatTab:
		return nil
	}
	return &usageError{fmt.Errorf("unknown output format %q (want json or tab)", format)}
}

// loadSequence reads one record from a FASTA file. An empty id selects the
// first record in the file.
func loadSequence(path, id string) (string, string, error) {
	records, err := genome.LoadFASTA(path)
	if err != nil {
		return "", "", err
	}
	if id == "" {
		first, seq, ok := records.First()
		if !ok {
			return "", "", fmt.Errorf("%s: no FASTA records", path)
		}
		return first, seq, nil
	}
	seq, ok := records.Get(id)
	if !ok {
		return "", "", fmt.Errorf("%s: sequence %q not found", path, id)
	}
	return id, seq, nil
}

// loadAnnotations reads a GFF file, or returns nil for an empty path.
func loadAnnotations(path string) ([]genome.Feature, error) {
	if path == "" {
		return nil, nil
	}
	features, err := genome.LoadGFF(path)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded annotations", zap.String("path", path), zap.Int("features", len(features)))
	return features, nil
}

// openOutput returns the command's stdout, or a created file when path is
// set. The returned close function must be called when writing is done.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}

// resolveSeed returns the seed at key, or a clock-derived one when neither
// --seed nor the config sets it. An explicit 0 is kept.
func resolveSeed(cmd *cobra.Command, key string) int64 {
	if cmd.Flags().Changed("seed") || viper.IsSet(key) {
		return viper.GetInt64(key)
	}
	return time.Now().UnixNano()
}

// openStore opens the run store at store.path.
func openStore() (*duckdb.Store, error) {
	path := viper.GetString("store.path")
	if path == "" {
		path = defaultStorePath()
	}
	s, err := duckdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run store %s: %w", path, err)
	}
	return s, nil
}

// writeTab runs fn against a tab writer on w and flushes it.
func writeTab(w io.Writer, fn func(*output.TabWriter) error) error {
	tw := output.NewTabWriter(w)
	if err := fn(tw); err != nil {
		return err
	}
	return tw.Flush()
}
