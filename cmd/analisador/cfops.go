package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pmarinho/analisador-fiscal/internal/cli"
	"github.com/pmarinho/analisador-fiscal/internal/prefs"
)

func cfopsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cfops",
		Short: "Manage the persisted ignored-CFOP list",
		Long: `List, add and remove the CFOP codes excluded from the ICMS analysis.

The list is saved locally and applied automatically on every
'analisador analyze icms' run.`,
	}

	cmd.AddCommand(listCfopsCmd())
	cmd.AddCommand(addCfopsCmd())
	cmd.AddCommand(removeCfopsCmd())

	return cmd
}

func listCfopsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the ignored CFOP codes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			ignored, err := prefs.LoadIgnoredCFOPs(ctx, store)
			if err != nil {
				return err
			}

			codes := ignored.List()
			if len(codes) == 0 {
				fmt.Println(cli.SubtleStyle.Render("Nenhum CFOP ignorado."))
				return nil
			}
			fmt.Println(cli.FormatTitle("CFOPs ignorados"))
			fmt.Println(strings.Join(codes, ", "))
			return nil
		},
	}
}

func addCfopsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <codes>",
		Short: "Add CFOP codes (comma, semicolon or space separated)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			ignored, err := prefs.LoadIgnoredCFOPs(ctx, store)
			if err != nil {
				return err
			}

			added, err := ignored.Add(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(added) == 0 {
				fmt.Println(cli.FormatWarning("Nenhum código novo para adicionar."))
				return nil
			}
			fmt.Println(cli.FormatSuccess("Adicionados: " + strings.Join(added, ", ")))
			return nil
		},
	}
}

func removeCfopsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <code>",
		Short: "Remove one CFOP code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			ignored, err := prefs.LoadIgnoredCFOPs(ctx, store)
			if err != nil {
				return err
			}

			removed, err := ignored.Remove(ctx, args[0])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Println(cli.FormatWarning("Código não está na lista."))
				return nil
			}
			fmt.Println(cli.FormatSuccess("Removido: " + args[0]))
			return nil
		},
	}
}
