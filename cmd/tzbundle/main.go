// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command tzbundle builds and verifies time zone update bundles.
//
//	tzbundle build --config bundle.yaml [--output out.zip]
//	tzbundle verify [--root staged/] bundle.zip
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bpowers/tzdb/bundle"
	"github.com/bpowers/tzdb/checksum"
)

const (
	exitOK         = 0
	exitUsage      = 2
	exitInput      = 3
	exitValidation = 4
	exitOutput     = 5
)

// exitError carries the process exit status for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// inputError classifies a failure reading err's subject: missing or
// unreadable files are input errors, anything else a validation error.
func inputError(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return withCode(exitInput, err)
	}
	return withCode(exitValidation, err)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "tzbundle",
		Short:         "Build and verify time zone update bundles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	var configPath, outputPath string
	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build a bundle from a YAML description",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return build(newLogger(stderr, verbose), configPath, outputPath)
		},
	}
	buildCmd.Flags().StringVarP(&configPath, "config", "c", "", "bundle description (YAML)")
	buildCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path, overriding the config file")

	var root string
	verifyCmd := &cobra.Command{
		Use:   "verify BUNDLE",
		Short: "Check a bundle and the checksums of the files it names",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return verify(newLogger(stderr, verbose), stdout, args[0], root)
		},
	}
	verifyCmd.Flags().StringVar(&root, "root", "", "resolve manifest file names under this directory")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(verifyCmd)
	return rootCmd
}

func build(logger *slog.Logger, configPath, outputPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return withCode(exitUsage, err)
	}
	if outputPath != "" {
		cfg.Output = outputPath
	}
	if cfg.Output == "" {
		return withCode(exitUsage, errors.New("no output path given"))
	}

	builder := bundle.NewBuilder(bundle.WithBuilderLogger(logger)).
		SetTzDataVersion(cfg.TzDataVersion).
		SetFormatVersion(cfg.FormatVersion)
	if cfg.ZoneDatabase != "" {
		if err := builder.AddZoneDatabaseFile(cfg.ZoneDatabase); err != nil {
			return withCode(exitInput, err)
		}
	}
	if cfg.AuxiliaryData != "" {
		if err := builder.AddAuxiliaryDataFile(cfg.AuxiliaryData); err != nil {
			return withCode(exitInput, err)
		}
	}
	for _, name := range cfg.ChecksumFiles {
		sum, err := checksum.File(cfg.checksumPath(name))
		if err != nil {
			return withCode(exitInput, err)
		}
		logger.Debug("checksummed file", "name", name, "checksum", sum)
		builder.AddChecksum(name, sum)
	}

	b, err := builder.Build()
	if err != nil {
		return withCode(exitValidation, err)
	}
	if err := b.WriteFile(cfg.Output); err != nil {
		return withCode(exitOutput, err)
	}
	return nil
}

func verify(logger *slog.Logger, stdout io.Writer, path, root string) error {
	b, err := bundle.ReadFile(path)
	if err != nil {
		return inputError(err)
	}
	logger.Debug("read bundle", "path", path, "tzdata_version", b.TzDataVersion(), "checksums", len(b.Checksums()))
	if err := b.VerifyChecksums(root); err != nil {
		return inputError(err)
	}
	fmt.Fprintf(stdout, "%s: ok (tzdata %s, %d checksums)\n", path, b.TzDataVersion(), len(b.Checksums()))
	return nil
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(stderr, "tzbundle: %s\n", err)
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	// flag and argument errors from cobra
	return exitUsage
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
