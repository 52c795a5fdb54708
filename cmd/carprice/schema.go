package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/carprice/internal/cli"
	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/schema"
)

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the feature schema",
		Long: `List every feature the pipeline produces with its type and allowed domain.
With --feature, print that feature's full definition as JSON.`,
		Args: cobra.NoArgs,
		RunE: runSchema,
	}

	cmd.Flags().StringP("feature", "f", "", "show the full definition of one feature")

	return cmd
}

func runSchema(cmd *cobra.Command, _ []string) error {
	feature, _ := cmd.Flags().GetString("feature")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := loadSchema(cfg.Schema.Path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if feature != "" {
		domain, err := s.Domain(feature)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(domain)
	}

	fmt.Fprintln(out, cli.RenderBox(cli.FolderIcon+" Feature schema",
		cli.RenderTable([]string{"Feature", "Type", "Domain"}, schemaRows(s))))
	return nil
}

func schemaRows(s *schema.Schema) [][]string {
	features := s.Features()
	rows := make([][]string, len(features))
	for i, f := range features {
		rows[i] = []string{f.Name, string(f.Kind), describeDomain(f)}
	}
	return rows
}

func describeDomain(f model.Feature) string {
	switch f.Kind {
	case model.KindNumerical:
		lo, hi := "-inf", "+inf"
		if f.Min != nil {
			lo = strconv.FormatFloat(*f.Min, 'f', -1, 64)
		}
		if f.Max != nil {
			hi = strconv.FormatFloat(*f.Max, 'f', -1, 64)
		}
		return fmt.Sprintf("[%s, %s]", lo, hi)
	case model.KindLogical:
		return "True, False"
	default:
		if len(f.Values) == 0 {
			return "any"
		}
		if len(f.Values) > 4 {
			return fmt.Sprintf("%s, ... (%d values)", strings.Join(f.Values[:3], ", "), len(f.Values))
		}
		return strings.Join(f.Values, ", ")
	}
}
