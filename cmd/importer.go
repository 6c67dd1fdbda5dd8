package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	app "github.com/okian/medalist/internal/app"
	"github.com/okian/medalist/internal/domain/decode"
	"github.com/okian/medalist/internal/domain/report"
	"github.com/okian/medalist/internal/domain/types"
)

// File permission constants.
const filePermission = 0o640

type importOptions struct {
	format     string
	force      bool
	errorsPath string
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:       "import {athletes|performances} FILE",
		Short:     "Import a CSV or JSON file into the configured store",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"athletes", "performances"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := startService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer svc.Stop()
			return runImport(cmd.Context(), svc, args[0], args[1], opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "auto", "Input format: auto, csv or json")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite existing performances")
	cmd.Flags().StringVar(&opts.errorsPath, "errors", "", "Write the error report CSV to this path")
	return cmd
}

// runImport imports path as kind and prints a summary to out.
func runImport(ctx context.Context, svc *app.Service, kind, path string, opts importOptions, out io.Writer) error {
	format, err := formatFor(path, opts.format)
	if err != nil {
		return err
	}
	f, err := os.Open(path) //nolint:gosec // path is an operator-supplied CLI argument
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var res *types.ImportResult
	switch kind {
	case "athletes":
		res, err = svc.ImportAthletes(ctx, f, format)
	case "performances":
		res, err = svc.ImportPerformances(ctx, f, format, opts.force)
	default:
		return fmt.Errorf("unknown record kind %q: want athletes or performances", kind)
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "batch %s: %d rows, %d imported, %d failed\n", res.BatchID, res.Rows, res.SuccessCount, res.ErrorCount)
	for _, e := range res.Errors {
		_, _ = fmt.Fprintf(out, "  row %d: %s\n", e.Line, e.Message)
	}
	if opts.errorsPath != "" && res.ErrorCount > 0 {
		if err := os.WriteFile(opts.errorsPath, []byte(res.ErrorReport), filePermission); err != nil {
			return fmt.Errorf("write error report: %w", err)
		}
		_, _ = fmt.Fprintf(out, "error report written to %s\n", opts.errorsPath)
	}
	return nil
}

func formatFor(path, flag string) (decode.Format, error) {
	switch strings.ToLower(flag) {
	case "csv":
		return decode.FormatCSV, nil
	case "json":
		return decode.FormatJSON, nil
	case "", "auto":
		if strings.EqualFold(filepath.Ext(path), ".json") {
			return decode.FormatJSON, nil
		}
		return decode.FormatAuto, nil
	default:
		return decode.FormatAuto, fmt.Errorf("unknown format %q: want auto, csv or json", flag)
	}
}

type exportOptions struct {
	ids     []int64
	profile string
	out     string
}

func newExportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export {athletes|performances}",
		Short: "Export athletes or their performances as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := startService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer svc.Stop()
			return runExport(cmd.Context(), svc, args[0], opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Int64SliceVar(&opts.ids, "ids", nil, "Athlete ids to export (required)")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "Export profile: localized or iso (default from config)")
	cmd.Flags().StringVar(&opts.out, "out", "", "Output file (default: the generated export filename)")
	_ = cmd.MarkFlagRequired("ids")
	return cmd
}

// runExport writes the export of kind to opts.out and reports the path on out.
func runExport(ctx context.Context, svc *app.Service, kind string, opts exportOptions, out io.Writer) error {
	var profile report.Profile
	if opts.profile != "" {
		p, err := report.ParseProfile(opts.profile)
		if err != nil {
			return err
		}
		profile = p
	}

	var (
		export *types.Export
		err    error
	)
	switch kind {
	case "athletes":
		export, err = svc.ExportAthletes(ctx, opts.ids, profile)
	case "performances":
		export, err = svc.ExportPerformances(ctx, opts.ids, profile)
	default:
		return fmt.Errorf("unknown record kind %q: want athletes or performances", kind)
	}
	if err != nil {
		return err
	}

	path := opts.out
	if path == "" {
		path = export.Filename
	}
	if path == "-" {
		_, err := out.Write(export.Data)
		return err
	}
	if err := os.WriteFile(path, export.Data, filePermission); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	_, _ = fmt.Fprintf(out, "exported %d bytes to %s\n", len(export.Data), path)
	return nil
}
