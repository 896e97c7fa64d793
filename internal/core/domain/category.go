package domain

// Origin records who assigned a category to a bill.
type Origin string

const (
	// OriginRule rows come from the pattern rules and are rewritten on every run.
	OriginRule Origin = "rule"
	// OriginModel rows come from model-assisted or manual curation and are never
	// touched by rule reconciliation.
	OriginModel Origin = "model"
)

// Valid reports whether o is one of the known origins.
func (o Origin) Valid() bool {
	return o == OriginRule || o == OriginModel
}

// RuleConfidence is the fixed confidence of rule-derived tags.
const RuleConfidence = 1.0

// Category is one entry of the fixed civic-topic catalog.
type Category struct {
	Code        string `db:"code"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Icon        string `db:"icon"`
}

// Category codes.
const (
	CategoryPublicSpending = "GASTOS_PUBLICOS"
	CategoryEnvironment    = "MEIO_AMBIENTE"
	CategoryHealth         = "SAUDE"
	CategoryEducation      = "EDUCACAO"
	CategoryPublicSafety   = "SEGURANCA_PUBLICA"
	CategoryTaxation       = "TRIBUTACAO"
	CategorySocialRights   = "DIREITOS_SOCIAIS"
	CategoryInfrastructure = "INFRAESTRUTURA"
	CategoryAgriculture    = "AGRICULTURA"
)

// Catalog is the seeded category list, in display order.
var Catalog = []Category{
	{CategoryPublicSpending, "Gastos Públicos", "Orçamento, créditos, fundos e execução financeira da União", "💰"},
	{CategoryEnvironment, "Meio Ambiente", "Licenciamento, florestas, clima, recursos hídricos e fauna", "🌳"},
	{CategoryHealth, "Saúde", "SUS, hospitais, medicamentos, vigilância sanitária", "🏥"},
	{CategoryEducation, "Educação", "Escolas, universidades, ensino e formação profissional", "🎓"},
	{CategoryPublicSafety, "Segurança Pública", "Polícias, crimes, sistema penal e armas", "🚓"},
	{CategoryTaxation, "Tributação", "Impostos, contribuições e regimes tributários", "🧾"},
	{CategorySocialRights, "Direitos Sociais", "Previdência, assistência, trabalho, moradia e minorias", "🤝"},
	{CategoryInfrastructure, "Infraestrutura", "Transporte, energia, saneamento, telecomunicações e obras", "🏗️"},
	{CategoryAgriculture, "Agricultura", "Agropecuária, crédito rural, reforma agrária e abastecimento", "🌾"},
}

// IsCatalogCode reports whether code names a catalog category.
func IsCatalogCode(code string) bool {
	for _, c := range Catalog {
		if c.Code == code {
			return true
		}
	}
	return false
}

// BillCategory tags a bill with a category. (BillID, CategoryCode, Origin) is unique;
// the same bill may carry a rule row and a model row for one category.
type BillCategory struct {
	BillID       int64   `db:"bill_id"`
	CategoryCode string  `db:"category_code"`
	Origin       Origin  `db:"origin"`
	Confidence   float64 `db:"confidence"`
}
