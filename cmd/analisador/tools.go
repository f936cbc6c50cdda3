package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pmarinho/analisador-fiscal/internal/cli"
	"github.com/pmarinho/analisador-fiscal/internal/registry"
)

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools your account can use",
		Long:  `Display the analysis and conversion tools granted to the current session.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			claims, err := loadSession(ctx, store)
			if err != nil {
				return err
			}

			available := registry.Available(claims.Has)
			if len(available) == 0 {
				fmt.Println(cli.FormatWarning("Nenhuma ferramenta liberada para este usuário."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Ferramentas disponíveis"))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.HeaderStyle.Render("Chave"),
				cli.HeaderStyle.Render("Ferramenta"),
				cli.HeaderStyle.Render("Descrição"))
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				strings.Repeat("-", 30),
				strings.Repeat("-", 28),
				strings.Repeat("-", 50))

			for _, tool := range available {
				fmt.Fprintf(w, "%s\t%s\t%s\n", tool.Key, tool.Title, tool.Description)
			}

			return nil
		},
	}
}
