package main

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/pmarinho/analisador-fiscal/internal/cli"
	"github.com/pmarinho/analisador-fiscal/internal/dispatch"
	"github.com/pmarinho/analisador-fiscal/internal/export"
	"github.com/pmarinho/analisador-fiscal/internal/files"
	"github.com/pmarinho/analisador-fiscal/internal/model"
	"github.com/pmarinho/analisador-fiscal/internal/registry"
	"github.com/pmarinho/analisador-fiscal/internal/state"
)

// Prefix filters accept account-code characters only.
var prefixChars = regexp.MustCompile(`[^0-9,.\s]`)

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert an accounting file pair",
		Long: `Send a bookkeeping entries file and a chart of accounts to the remote
service and save the converted import file it returns.`,
	}

	cmd.AddCommand(convertToolCmd(model.ToolConverterFrancesinha, "francesinha", false))
	cmd.AddCommand(convertToolCmd(model.ToolConverterReceitas, "receitas-acisa", false))
	cmd.AddCommand(convertToolCmd(model.ToolConverterAtoliniRec, "atolini-recebimentos", false))
	cmd.AddCommand(convertToolCmd(model.ToolConverterAtoliniPag, "atolini-pagamentos", true))

	return cmd
}

func convertToolCmd(key model.ToolKey, use string, withPrefixes bool) *cobra.Command {
	tool, _ := registry.Lookup(key)

	cmd := &cobra.Command{
		Use:   use,
		Short: tool.Title,
		Long:  tool.Description,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd, key, withPrefixes)
		},
	}

	cmd.Flags().StringP("lancamentos", "l", "", "bookkeeping entries file (.xls, .xlsx)")
	cmd.Flags().StringP("contas", "c", "", "chart of accounts file (.csv)")
	cmd.Flags().StringP("output", "o", ".", "directory for the converted file")
	if withPrefixes {
		cmd.Flags().String("passivo", "", "account prefixes treated as credit (ex: 2.1.1, 2.1.1.01)")
		cmd.Flags().String("ativo", "", "account prefixes treated as debit (ex: 1.1.1, 1.1.1.02)")
	}
	_ = cmd.MarkFlagRequired("lancamentos")
	_ = cmd.MarkFlagRequired("contas")

	return cmd
}

func runConvert(cmd *cobra.Command, key model.ToolKey, withPrefixes bool) error {
	ctx := cmd.Context()

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := loadSession(ctx, store); err != nil {
		return err
	}

	tool, err := registry.Lookup(key)
	if err != nil {
		return err
	}

	featureState := newStateStore(nil)

	lancamentosPath, _ := cmd.Flags().GetString("lancamentos")
	contasPath, _ := cmd.Flags().GetString("contas")
	inputs := make(map[string]model.FileSlot, 2)
	for slotName, path := range map[string]string{
		"lancamentosFile": lancamentosPath,
		"contasFile":      contasPath,
	} {
		handle, err := files.FromPath(path)
		if err != nil {
			return err
		}
		inputs[slotName] = model.FileSlot{Single: &handle}
	}
	featureState.Update(key, state.Patch{Inputs: inputs})

	if withPrefixes {
		passivo, _ := cmd.Flags().GetString("passivo")
		ativo, _ := cmd.Flags().GetString("ativo")
		featureState.Update(key, state.Patch{
			Parameters: map[string]string{
				"creditPrefixes": prefixChars.ReplaceAllString(passivo, ""),
				"debitPrefixes":  prefixChars.ReplaceAllString(ativo, ""),
			},
		})
	}

	dispatcher := dispatch.NewDispatcher(featureState, newClient(store))
	fmt.Println(cli.FormatTitle("Convertendo arquivos..."))
	out, err := dispatcher.RunConversion(ctx, key)
	if err != nil {
		final := featureState.Get(key)
		fmt.Println(cli.FormatError(final.ErrorMessage))
		if errors.Is(err, dispatch.ErrValidation) {
			return err
		}
		return fmt.Errorf("conversion failed: %w", err)
	}

	outputDir, _ := cmd.Flags().GetString("output")
	path, err := export.SaveBlob(outputDir, out.Data, out.Header, tool.DefaultExportName)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess("Arquivo convertido salvo em " + path))
	return nil
}
