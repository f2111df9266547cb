package contracts

// CVM CDA (Composição e Diversificação das Aplicações) column names consumed
// by the built-in custom features.
const (
	ColFund            = "CNPJ_FUNDO"
	ColFundClass       = "CNPJ_FUNDO_CLASSE"
	ColCompetence      = "DT_COMPTC"
	ColMarketValue     = "VL_MERC_POS_FINAL"
	ColApplicationType = "TP_APLIC"
	ColRelatedIssuer   = "EMISSOR_LIGADO"
	ColIssuerID        = "CPF_CNPJ_EMISSOR"

	// added by the fetcher to every row
	ColPeriod        = "period"
	ColReferenceDate = "reference_date"
)

// RelatedIssuerFlag marks a holding issued by a related party
const RelatedIssuerFlag = "S"

// DefaultGroupKey is the standardization grouping used when none is configured
const DefaultGroupKey = "competencia"

// Holding is one CDA position row. It is the typed view used to build
// fixtures and reports; the pipeline itself works on raw string tables.
type Holding struct {
	Fund            string
	Period          string
	MarketValue     float64
	ApplicationType string
	RelatedIssuer   string
	IssuerID        string
}

// IsRelated reports whether the issuer is a related party
func (h *Holding) IsRelated() bool {
	return h.RelatedIssuer == RelatedIssuerFlag
}
