package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fabricquote/internal/calculator"
	"fabricquote/pkg/api"
)

func newQuoteCmd(a *app) *cobra.Command {
	var (
		baseURL string
		token   string
	)

	cmd := &cobra.Command{
		Use:   "quote <params.json>",
		Short: "Price a calculation request against a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read params: %w", err)
			}

			var p calculator.Params
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("decode params: %w", err)
			}
			if err := p.Validate(); err != nil {
				return err
			}

			res, err := api.NewClient(baseURL, token, a.logger).Calculate(cmd.Context(), p)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "fabricquote server address")
	cmd.Flags().StringVar(&token, "token", os.Getenv("FABRICQUOTE_TOKEN"), "bearer token sent to the server")
	return cmd
}
