// Package model defines the core domain types shared across the application.
package model

import "fmt"

// ToolKey identifies one selectable analysis-or-conversion tool.
// The set is closed; each key drives its own state template, endpoint
// and form layout.
type ToolKey string

// All known tool keys.
const (
	ToolAnaliseICMS          ToolKey = "analise-icms"
	ToolAnaliseIPIST         ToolKey = "analise-ipi-st"
	ToolConverterFrancesinha ToolKey = "converter-francesinha"
	ToolConverterReceitas    ToolKey = "converter-receitas-acisa"
	ToolConverterAtoliniRec  ToolKey = "converter-atolini-recebimentos"
	ToolConverterAtoliniPag  ToolKey = "converter-atolini-pagamentos"
)

// AllToolKeys lists every key in display order.
var AllToolKeys = []ToolKey{
	ToolAnaliseICMS,
	ToolAnaliseIPIST,
	ToolConverterFrancesinha,
	ToolConverterReceitas,
	ToolConverterAtoliniRec,
	ToolConverterAtoliniPag,
}

// ParseToolKey validates a raw string against the closed key set.
func ParseToolKey(s string) (ToolKey, error) {
	for _, k := range AllToolKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown tool key: %q", s)
}

func (k ToolKey) String() string {
	return string(k)
}
