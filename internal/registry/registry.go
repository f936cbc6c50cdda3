// Package registry holds the static tool table: every selectable tool,
// its required permission, endpoint and form layout. Permission filtering
// happens here at presentation time; the orchestration core only consumes
// the already-filtered key list.
package registry

import (
	"fmt"

	"github.com/pmarinho/analisador-fiscal/internal/model"
)

// Kind distinguishes the two tool families.
type Kind int

// Tool families.
const (
	KindAnalysis Kind = iota
	KindConversion
)

// Slot describes one named file input: its multipart field name, whether
// it accepts multiple files, and the role used to synthesize filenames
// when a handle arrives without one.
type Slot struct {
	Name  string
	Label string
	Role  string
	Multi bool
}

// Tool is one row of the static table.
type Tool struct {
	Key               model.ToolKey
	Permission        string
	Kind              Kind
	Endpoint          string
	Title             string
	Description       string
	Slots             []Slot
	ParameterFields   []string
	DefaultExportName string
}

var tools = []Tool{
	{
		Key:        model.ToolAnaliseICMS,
		Permission: "analise-icms",
		Kind:       KindAnalysis,
		Endpoint:   "/analyze/icms",
		Title:      "Análise de ICMS",
		Description: "Cruza dados de arquivos SPED e XML para encontrar " +
			"divergências de ICMS.",
		Slots: []Slot{
			{Name: "spedFile", Label: "Arquivo SPED (.txt)", Role: "sped"},
			{Name: "xmlFiles", Label: "Arquivos NF-e (.xml)", Role: "nfe", Multi: true},
		},
		ParameterFields:   []string{"cfopsIgnorados"},
		DefaultExportName: "analise_icms.csv",
	},
	{
		Key:        model.ToolAnaliseIPIST,
		Permission: "analise-ipi-st",
		Kind:       KindAnalysis,
		Endpoint:   "/analyze/ipi-st",
		Title:      "Análise de IPI/ST",
		Description: "Compara valores de IPI e Substituição Tributária " +
			"entre SPED e XML.",
		Slots: []Slot{
			{Name: "spedFile", Label: "Arquivo SPED (.txt)", Role: "sped"},
			{Name: "xmlFiles", Label: "Arquivos NF-e (.xml)", Role: "nfe", Multi: true},
		},
		DefaultExportName: "analise_ipi_st.csv",
	},
	{
		Key:        model.ToolConverterFrancesinha,
		Permission: "converter-francesinha",
		Kind:       KindConversion,
		Endpoint:   "/convert/francesinha",
		Title:      "Conversor Francesinha",
		Description: "Converte arquivos de lançamento para o formato de " +
			"importação contábil.",
		Slots: []Slot{
			{Name: "lancamentosFile", Label: "Arquivo de Lançamentos", Role: "lancamentos"},
			{Name: "contasFile", Label: "Plano de Contas (.csv)", Role: "contas"},
		},
		DefaultExportName: "francesinha_convertido.csv",
	},
	{
		Key:        model.ToolConverterReceitas,
		Permission: "converter-receitas-acisa",
		Kind:       KindConversion,
		Endpoint:   "/convert/receitas-acisa",
		Title:      "Conversor Receitas Acisa",
		Description: "Converte o relatório de receitas ACISA para o " +
			"formato de importação contábil.",
		Slots: []Slot{
			{Name: "lancamentosFile", Label: "Arquivo de Lançamentos", Role: "lancamentos"},
			{Name: "contasFile", Label: "Plano de Contas (.csv)", Role: "contas"},
		},
		DefaultExportName: "receitas_acisa_convertido.csv",
	},
	{
		Key:        model.ToolConverterAtoliniRec,
		Permission: "converter-atolini-recebimentos",
		Kind:       KindConversion,
		Endpoint:   "/convert/atolini-recebimentos",
		Title:      "Conversor Atolini Recebimentos",
		Description: "Converte um arquivo de lançamentos e um plano de " +
			"contas para o formato Atolini Recebimentos.",
		Slots: []Slot{
			{Name: "lancamentosFile", Label: "Arquivo de Lançamentos (.xls, .xlsx)", Role: "lancamentos"},
			{Name: "contasFile", Label: "Plano de Contas (.csv)", Role: "contas"},
		},
		DefaultExportName: "atolini_recebimentos_convertido.csv",
	},
	{
		Key:        model.ToolConverterAtoliniPag,
		Permission: "converter-atolini-pagamentos",
		Kind:       KindConversion,
		Endpoint:   "/convert/atolini-pagamentos",
		Title:      "Conversor Atolini Pagamentos",
		Description: "Converte um arquivo de lançamentos e um plano de " +
			"contas para o formato Atolini Pagamentos.",
		Slots: []Slot{
			{Name: "lancamentosFile", Label: "Arquivo de Lançamentos (.xls, .xlsx)", Role: "lancamentos"},
			{Name: "contasFile", Label: "Plano de Contas (.csv)", Role: "contas"},
		},
		ParameterFields:   []string{"creditPrefixes", "debitPrefixes"},
		DefaultExportName: "atolini_pagamentos_convertido.csv",
	},
}

// All returns every tool in display order.
func All() []Tool {
	out := make([]Tool, len(tools))
	copy(out, tools)
	return out
}

// Lookup finds the descriptor for a key.
func Lookup(key model.ToolKey) (Tool, error) {
	for _, t := range tools {
		if t.Key == key {
			return t, nil
		}
	}
	return Tool{}, fmt.Errorf("no tool registered for key %q", key)
}

// Available filters the table through a capability check.
func Available(can func(permission string) bool) []Tool {
	var out []Tool
	for _, t := range tools {
		if can(t.Permission) {
			out = append(out, t)
		}
	}
	return out
}

// SingleSlots returns the single-valued slots in declaration order.
func (t Tool) SingleSlots() []Slot {
	var out []Slot
	for _, s := range t.Slots {
		if !s.Multi {
			out = append(out, s)
		}
	}
	return out
}

// MultiSlot returns the multi-valued slot, if the tool has one.
func (t Tool) MultiSlot() (Slot, bool) {
	for _, s := range t.Slots {
		if s.Multi {
			return s, true
		}
	}
	return Slot{}, false
}

// NewState produces the initial state template for the tool.
func (t Tool) NewState() model.ToolState {
	state := model.ToolState{
		Inputs:     make(map[string]model.FileSlot, len(t.Slots)),
		Parameters: make(map[string]string, len(t.ParameterFields)),
	}
	for _, s := range t.Slots {
		state.Inputs[s.Name] = model.FileSlot{}
	}
	for _, p := range t.ParameterFields {
		state.Parameters[p] = ""
	}
	return state
}
