package model

// Comparison outcome codes returned by the analysis service.
const (
	StatusOK              = 0
	StatusICMSDivergence  = 1
	StatusNotFoundInSped  = 2
	StatusInvalidXML      = 3
	StatusIPISTDivergence = 4
)

// StatusLabel returns the display label for a comparison outcome code.
func StatusLabel(code int) string {
	switch code {
	case StatusICMSDivergence:
		return "Discrepância de ICMS"
	case StatusNotFoundInSped:
		return "Não encontrada no SPED"
	case StatusInvalidXML:
		return "XML Inválido"
	case StatusIPISTDivergence:
		return "Discrepância IPI/ST"
	default:
		return "OK"
	}
}

// ResultRecord is one row of an analysis result. NFeKey is the fiscal
// document key, unique per run, and serves as the stable row identity.
// The value pairs populated inside Data depend on the tool family.
type ResultRecord struct {
	NFeKey     string     `json:"nfe_key"`
	StatusCode int        `json:"status_code"`
	Alerts     []string   `json:"alerts"`
	Data       ResultData `json:"data"`
}

// ResultData carries the declared (XML) versus ledger (SPED) amounts
// compared by each analysis family, as fixed-point currency values.
type ResultData struct {
	IcmsXML      float64  `json:"icms_xml"`
	IcmsSped     float64  `json:"icms_sped"`
	CfopsSped    []string `json:"cfops_sped"`
	DocNumber    string   `json:"doc_number"`
	IPIValueXML  float64  `json:"ipi_value_xml"`
	IPIValueSped float64  `json:"ipi_value_sped"`
	STValueXML   float64  `json:"st_value_xml"`
	STValueSped  float64  `json:"st_value_sped"`
}
