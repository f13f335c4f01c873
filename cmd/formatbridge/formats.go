package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/formatbridge/internal/format"
	"github.com/JonMunkholm/formatbridge/internal/i18n"
	"github.com/spf13/cobra"
)

func newFormatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List the supported formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			locale, _ := cmd.Flags().GetString("locale")
			asJSON, _ := cmd.Flags().GetBool("json")
			return a.listFormats(locale, asJSON)
		},
	}
	cmd.Flags().String("locale", i18n.DefaultLocale, "language of labels and descriptions")
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

func (a *app) listFormats(locale string, asJSON bool) error {
	catalog := i18n.Default()
	all := format.All()

	if asJSON {
		type item struct {
			ID          format.ID `json:"id"`
			Label       string    `json:"label"`
			Description string    `json:"description"`
			Extension   string    `json:"extension"`
			Aliases     []string  `json:"aliases,omitempty"`
		}
		out := make([]item, len(all))
		for i, d := range all {
			out[i] = item{
				ID:          d.ID,
				Label:       d.LocalizedLabel(catalog, locale),
				Description: d.LocalizedDescription(catalog, locale),
				Extension:   d.Extension,
				Aliases:     d.Aliases,
			}
		}
		return writeJSON(a, out)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tEXT\tALIASES\tDESCRIPTION")
	for _, d := range all {
		fmt.Fprintf(tw, "%s\t%s\t.%s\t%s\t%s\n",
			d.ID,
			d.LocalizedLabel(catalog, locale),
			d.Extension,
			strings.Join(d.Aliases, ","),
			d.LocalizedDescription(catalog, locale),
		)
	}
	return tw.Flush()
}

func newPairsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pairs",
		Short: "List the valid conversions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetString("from")
			asJSON, _ := cmd.Flags().GetBool("json")
			return a.listPairs(from, asJSON)
		},
	}
	cmd.Flags().String("from", "", "only conversions from this format")
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

func (a *app) listPairs(from string, asJSON bool) error {
	pairs := format.Pairs()
	if from != "" {
		d, ok := format.Lookup(from)
		if !ok {
			return fmt.Errorf("%w: %q", format.ErrUnknownFormat, from)
		}
		pairs = format.PairsFrom(d.ID)
	}

	if asJSON {
		slugs := make([]string, len(pairs))
		for i, p := range pairs {
			slugs[i] = p.Slug()
		}
		return writeJSON(a, slugs)
	}
	for _, p := range pairs {
		fmt.Fprintln(a.stdout, p.Slug())
	}
	return nil
}

func writeJSON(a *app, v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
