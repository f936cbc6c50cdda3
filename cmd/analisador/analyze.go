package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pmarinho/analisador-fiscal/internal/cli"
	"github.com/pmarinho/analisador-fiscal/internal/dispatch"
	"github.com/pmarinho/analisador-fiscal/internal/export"
	"github.com/pmarinho/analisador-fiscal/internal/files"
	"github.com/pmarinho/analisador-fiscal/internal/model"
	"github.com/pmarinho/analisador-fiscal/internal/prefs"
	"github.com/pmarinho/analisador-fiscal/internal/registry"
	"github.com/pmarinho/analisador-fiscal/internal/state"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a fiscal discrepancy analysis",
		Long: `Cross-check SPED bookkeeping files against NF-e XML invoices on the
remote service and report the divergences found.`,
	}

	cmd.AddCommand(analyzeToolCmd(model.ToolAnaliseICMS, "icms", true))
	cmd.AddCommand(analyzeToolCmd(model.ToolAnaliseIPIST, "ipi-st", false))

	return cmd
}

func analyzeToolCmd(key model.ToolKey, use string, withCfops bool) *cobra.Command {
	tool, _ := registry.Lookup(key)

	cmd := &cobra.Command{
		Use:   use,
		Short: tool.Title,
		Long:  tool.Description,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, key, withCfops)
		},
	}

	cmd.Flags().StringP("sped", "s", "", "SPED fiscal file (.txt)")
	cmd.Flags().StringSliceP("xml", "x", nil, "NF-e XML files (repeatable, accepts globs)")
	cmd.Flags().StringP("export", "e", "", "write the results as CSV to this path")
	if withCfops {
		cmd.Flags().String("ignore-cfop", "", "extra CFOP codes to ignore for this run (comma-separated)")
	}
	_ = cmd.MarkFlagRequired("sped")
	_ = cmd.MarkFlagRequired("xml")

	return cmd
}

func runAnalyze(cmd *cobra.Command, key model.ToolKey, withCfops bool) error {
	ctx := cmd.Context()

	store, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := loadSession(ctx, store); err != nil {
		return err
	}

	ignored, err := prefs.LoadIgnoredCFOPs(ctx, store)
	if err != nil {
		return err
	}

	featureState := newStateStore(ignored)
	spedPath, _ := cmd.Flags().GetString("sped")
	xmlPatterns, _ := cmd.Flags().GetStringSlice("xml")

	if err := populateAnalysisInputs(featureState, key, spedPath, xmlPatterns); err != nil {
		return err
	}

	if withCfops {
		if extra, _ := cmd.Flags().GetString("ignore-cfop"); extra != "" {
			addRunCfops(featureState, key, extra)
		}
	}

	snap := featureState.Get(key)
	if codes := snap.Parameters["cfopsIgnorados"]; codes != "" {
		fmt.Println(cli.SubtleStyle.Render("CFOPs ignorados: " + codes))
	}

	dispatcher := dispatch.NewDispatcher(featureState, newClient(store))
	fmt.Println(cli.FormatTitle("Analisando arquivos..."))
	if err := dispatcher.RunAnalysis(ctx, key); err != nil {
		final := featureState.Get(key)
		fmt.Println(cli.FormatError(final.ErrorMessage))
		if errors.Is(err, dispatch.ErrValidation) {
			return err
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	final := featureState.Get(key)
	renderResults(key, final.Results)

	if exportPath, _ := cmd.Flags().GetString("export"); exportPath != "" {
		columns, err := export.ColumnsFor(key)
		if err != nil {
			return err
		}
		written, err := export.SaveCSV(exportPath, columns, final.Results)
		if err != nil {
			return err
		}
		if written {
			fmt.Println(cli.FormatSuccess("Resultados exportados para " + exportPath))
		}
	}

	return nil
}

// populateAnalysisInputs fills the tool's file slots: the single SPED
// slot directly, the XML slot through the normalizer so repeated globs
// matching the same file never produce duplicates.
func populateAnalysisInputs(featureState *state.Store, key model.ToolKey, spedPath string, xmlPatterns []string) error {
	tool, err := registry.Lookup(key)
	if err != nil {
		return err
	}
	spedSlot := tool.SingleSlots()[0]
	xmlSlot, _ := tool.MultiSlot()

	sped, err := files.FromPath(spedPath)
	if err != nil {
		return err
	}
	featureState.Update(key, state.Patch{
		Inputs: map[string]model.FileSlot{spedSlot.Name: {Single: &sped}},
	})

	paths, err := expandPatterns(xmlPatterns)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no XML files matched %s", strings.Join(xmlPatterns, ", "))
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Lendo arquivos XML..."),
		progressbar.OptionClearOnFinish(),
	)

	for _, path := range paths {
		handle, err := files.FromPath(path)
		if err != nil {
			return err
		}
		featureState.UpdateFunc(key, func(prev model.ToolState) state.Patch {
			slot := prev.Inputs[xmlSlot.Name]
			slot.Multi = files.AddFile(slot.Multi, handle)
			return state.Patch{
				Inputs: map[string]model.FileSlot{xmlSlot.Name: slot},
			}
		})
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	selected := len(featureState.Get(key).Inputs[xmlSlot.Name].Multi)
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d arquivos XML selecionados.", selected)))
	return nil
}

// addRunCfops merges extra run-only codes into the ignored parameter,
// observing the seeded preference value already present.
func addRunCfops(featureState *state.Store, key model.ToolKey, extra string) {
	featureState.UpdateFunc(key, func(prev model.ToolState) state.Patch {
		current := prev.Parameters["cfopsIgnorados"]
		merged := current
		for _, code := range strings.FieldsFunc(extra, func(r rune) bool {
			return r == ',' || r == ';' || r == ' '
		}) {
			code = strings.TrimSpace(code)
			if code == "" || strings.Contains(","+merged+",", ","+code+",") {
				continue
			}
			if merged == "" {
				merged = code
			} else {
				merged += "," + code
			}
		}
		return state.Patch{Parameters: map[string]string{"cfopsIgnorados": merged}}
	})
}

func expandPatterns(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[") {
			paths = append(paths, pattern)
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob %s: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

func renderResults(key model.ToolKey, results []model.ResultRecord) {
	if len(results) == 0 {
		fmt.Println(cli.FormatSuccess("Nenhuma inconsistência encontrada nos arquivos analisados."))
		return
	}

	fmt.Println(cli.FormatWarning(fmt.Sprintf("%d inconsistências encontradas.", len(results))))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if key == model.ToolAnaliseICMS {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			cli.HeaderStyle.Render("Chave NF-e"),
			cli.HeaderStyle.Render("Nº Nota"),
			cli.HeaderStyle.Render("ICMS XML"),
			cli.HeaderStyle.Render("ICMS SPED"),
			cli.HeaderStyle.Render("CFOPs SPED"),
			cli.HeaderStyle.Render("Status"))
		for _, r := range results {
			fmt.Fprintf(w, "%s\t%s\tR$ %s\tR$ %s\t%s\t%s\n",
				r.NFeKey,
				r.Data.DocNumber,
				export.Currency(r.Data.IcmsXML),
				export.Currency(r.Data.IcmsSped),
				strings.Join(r.Data.CfopsSped, ", "),
				model.StatusLabel(r.StatusCode))
		}
		return
	}

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		cli.HeaderStyle.Render("Chave NF-e"),
		cli.HeaderStyle.Render("IPI XML"),
		cli.HeaderStyle.Render("IPI SPED"),
		cli.HeaderStyle.Render("ST XML"),
		cli.HeaderStyle.Render("ST SPED"),
		cli.HeaderStyle.Render("Status"),
		cli.HeaderStyle.Render("Alertas"))
	for _, r := range results {
		fmt.Fprintf(w, "%s\tR$ %s\tR$ %s\tR$ %s\tR$ %s\t%s\t%s\n",
			r.NFeKey,
			export.Currency(r.Data.IPIValueXML),
			export.Currency(r.Data.IPIValueSped),
			export.Currency(r.Data.STValueXML),
			export.Currency(r.Data.STValueSped),
			model.StatusLabel(r.StatusCode),
			strings.Join(r.Alerts, ", "))
	}
}
