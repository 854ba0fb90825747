package main

import (
	"fmt"
	"slices"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/ahrav/go-humeval/internal/application"
)

func newDomainsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "domains",
		Short: "Show the domain distribution of each document catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, catalog := application.BuildSources(a.cfg, a.baseDir, a.logger)
			lps, err := catalog.LanguagePairs()
			if err != nil {
				return err
			}

			table := tablewriter.NewTable(cmd.OutOrStdout(),
				tablewriter.WithConfig(tablewriter.Config{
					Row: tw.CellConfig{
						Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
						Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
					},
				}),
			)
			table.Header([]string{"Language Pair", "Domain", "Share"})

			var rows [][]string
			for _, lp := range lps {
				c, err := catalog.Catalog(lp)
				if err != nil {
					return err
				}
				dist := c.DomainDistribution()
				domains := make([]string, 0, len(dist))
				for d := range dist {
					domains = append(domains, d)
				}
				slices.Sort(domains)
				for _, d := range domains {
					rows = append(rows, []string{lp.String(), d, fmt.Sprintf("%.1f%%", dist[d])})
				}
			}
			if err := table.Bulk(rows); err != nil {
				return err
			}
			return table.Render()
		},
	}
}
