package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fabricquote/internal/grid"
	"fabricquote/internal/storage"
)

var errUnrecognizedGrid = errors.New("pricing grid format not recognized")

func newGridCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Normalize and import pricing grids",
	}

	var sheet string
	normalize := &cobra.Command{
		Use:   "normalize <file.json|file.xlsx>",
		Short: "Print the canonical form of a pricing grid file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, format, err := readGridFile(args[0], sheet, a.logger)
			if err != nil {
				return err
			}

			out := struct {
				Grid       *grid.StandardGrid    `json:"grid"`
				Format     string                `json:"format"`
				Validation grid.ValidationResult `json:"validation"`
			}{g, format.String(), grid.Validate(g)}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	normalize.Flags().StringVar(&sheet, "sheet", "", "spreadsheet sheet to read (default: the active sheet)")

	importCmd := &cobra.Command{
		Use:   "import <windowCoveringID> <file.json|file.xlsx>",
		Short: "Normalize a pricing grid file and store it on a window covering",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := readGridFile(args[1], sheet, a.logger)
			if err != nil {
				return err
			}
			if result := grid.Validate(g); !result.Valid {
				return fmt.Errorf("pricing grid is invalid: %s", strings.Join(result.Errors, "; "))
			}

			db, err := storage.Open(cmd.Context(), a.cfg.Database, a.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			store := storage.NewCatalogStore(db, a.logger)
			if err := store.SaveWindowCoveringGrid(cmd.Context(), args[0], g); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d×%d %s grid on %s\n",
				len(g.WidthColumns), len(g.DropRows), g.Unit, args[0])
			return nil
		},
	}
	importCmd.Flags().StringVar(&sheet, "sheet", "", "spreadsheet sheet to read (default: the active sheet)")

	cmd.AddCommand(normalize, importCmd)
	return cmd
}

// readGridFile loads a JSON grid payload, or a spreadsheet laid out as grid.ReadXLSX
// expects, and normalizes it.
func readGridFile(path, sheet string, logger *zap.Logger) (*grid.StandardGrid, grid.Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, grid.FormatUnrecognized, fmt.Errorf("read grid file: %w", err)
	}

	var payload map[string]any
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		payload, err = grid.ReadXLSX(bytes.NewReader(data), sheet)
		if err != nil {
			return nil, grid.FormatUnrecognized, err
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			return nil, grid.FormatUnrecognized, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	g, format := grid.NewNormalizer(logger).NormalizeDetected(payload)
	if g == nil {
		return nil, format, errUnrecognizedGrid
	}
	return g, format, nil
}
