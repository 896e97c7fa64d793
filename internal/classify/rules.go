package classify

import "github.com/vietddude/legisync/internal/core/domain"

// DefaultRules is the rule table for the category catalog. Patterns are matched
// case-insensitively against accent-folded text, so they are written without
// diacritics.
var DefaultRules = []Rule{
	{
		Category: domain.CategoryPublicSpending,
		Patterns: []string{
			`\bcreditos? (suplementar|especial|extraordinario)`,
			`\borcamento (geral|fiscal|da seguridade|de investimento)`,
			`\blei orcamentaria\b`,
			`\bdiretrizes orcamentarias\b`,
			`\bplano plurianual\b`,
			`\bdotac(ao|oes) orcamentarias?\b`,
			`\bresponsabilidade fiscal\b`,
			`\bdespesas? publicas?\b`,
			`\bemendas? (parlamentar|de bancada|individua)`,
			`\bfundo de participacao\b`,
		},
	},
	{
		Category: domain.CategoryEnvironment,
		Patterns: []string{
			`\blicenciamento ambiental\b`,
			`\bmeio ambiente\b`,
			`\bambienta(l|is)\b`,
			`\bflorest`,
			`\bdesmatamento\b`,
			`\bmudancas? (do clima|climaticas?)\b`,
			`\bunidades? de conservacao\b`,
			`\brecursos hidricos\b`,
			`\bfauna\b`,
			`\bagrotoxicos?\b`,
			`\bresiduos solidos\b`,
			`\bpoluicao\b`,
		},
	},
	{
		Category: domain.CategoryHealth,
		Patterns: []string{
			`\bsaude\b`,
			`\bsistema unico de saude\b`,
			`\bsus\b`,
			`\bhospita(l|is|lar|lares)\b`,
			`\bmedicamentos?\b`,
			`\bvacina`,
			`\bvigilancia sanitaria\b`,
			`\bdoencas?\b`,
			`\benfermagem\b`,
		},
	},
	{
		Category: domain.CategoryEducation,
		Patterns: []string{
			`\beducac(ao|ional|ionais)\b`,
			`\bensino\b`,
			`\bescola`,
			`\buniversidades?\b`,
			`\bprofessor`,
			`\bestudantes?\b`,
			`\bfundeb\b`,
			`\bbolsas? de estudo`,
		},
	},
	{
		Category: domain.CategoryPublicSafety,
		Patterns: []string{
			`\bseguranca publica\b`,
			`\bcodigo (penal|de processo penal)\b`,
			`\bpolicia`,
			`\bcrimes?\b`,
			`\barmas? de fogo\b`,
			`\bsistema prisional\b`,
			`\bpenitenciari`,
			`\bviolencia\b`,
			`\btrafico\b`,
		},
	},
	{
		Category: domain.CategoryTaxation,
		Patterns: []string{
			`\btribut(o|os|aria|arias|ario|arios|acao)\b`,
			`\bimpostos?\b`,
			`\bcontribuic(ao|oes) (social|sociais|previdenciaria)`,
			`\bicms\b`,
			`\bcofins\b`,
			`\bsimples nacional\b`,
			`\bisenc(ao|oes) fisca`,
			`\brenda das pessoas fisicas\b`,
		},
	},
	{
		Category: domain.CategorySocialRights,
		Patterns: []string{
			`\bprevidencia`,
			`\baposentadori`,
			`\bassistencia social\b`,
			`\bbolsa familia\b`,
			`\btrabalhador`,
			`\bconsolidacao das leis do trabalho\b`,
			`\bmoradia\b`,
			`\bpessoas? com deficiencia\b`,
			`\bidos(o|os|a|as)\b`,
			`\bigualdade racial\b`,
			`\bcriancas?\b`,
			`\badolescentes?\b`,
		},
	},
	{
		Category: domain.CategoryInfrastructure,
		Patterns: []string{
			`\binfraestrutura\b`,
			`\brodovi`,
			`\bferrovi`,
			`\bportos?\b`,
			`\baeroporto`,
			`\benergia eletrica\b`,
			`\bsaneamento\b`,
			`\btelecomunicac`,
			`\bobras? publicas?\b`,
			`\bmobilidade urbana\b`,
			`\btransporte`,
		},
	},
	{
		Category: domain.CategoryAgriculture,
		Patterns: []string{
			`\bagricol`,
			`\bagricultur`,
			`\bagropecuari`,
			`\bagronegocio\b`,
			`\bcredito rural\b`,
			`\breforma agraria\b`,
			`\bpecuari`,
			`\bprodutor(es)? rura`,
			`\bsafras?\b`,
		},
	},
}
