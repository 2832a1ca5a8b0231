package feed

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// keywordFamily is one classification outcome and the phrases that select it.
// Families are checked in slice order and the first match wins.
type keywordFamily struct {
	kind     string
	severity Severity
	status   string
	keywords []string
}

type lexiconEntry struct {
	canonical string
	acronyms  []string // matched case-sensitively on the original text
	names     []string // matched on the lower-cased text
}

var pharmaFamilies = []keywordFamily{
	{kind: "drug_approval", keywords: []string{"fda approv", "approval", "approved", "approves", "authorization", "authorisation"}},
	{kind: "mergers_acquisitions", keywords: []string{"merger", "acquisition", "acquire", "buyout", "takeover", "merge"}},
	{kind: "clinical_trial", keywords: []string{"clinical trial", "phase", "trial", "study"}},
}

var patentFamilies = []keywordFamily{
	{kind: "patent_litigation", keywords: []string{"litigation", "lawsuit", "infring", "court", "ptab", "inter partes", "sued", "sues"}},
	{kind: "patent_application", keywords: []string{"application", "filed", "filing", "files"}},
	{kind: "patent_grant", keywords: []string{"granted", "grant", "issued", "awarded"}},
}

var trialFamilies = []keywordFamily{
	{kind: "trial_failed", severity: SeverityHigh, status: "Failed", keywords: []string{"failed", "fails", "unsuccessful", "futility", "did not meet", "missed primary", "misses primary"}},
	{kind: "trial_terminated", severity: SeverityHigh, status: "Terminated", keywords: []string{"terminated", "terminates", "discontinued", "discontinues", "halted", "halts"}},
	{kind: "trial_withdrawn", severity: SeverityHigh, status: "Withdrawn", keywords: []string{"withdrawn", "withdraws"}},
	{kind: "trial_delayed", severity: SeverityMedium, status: "Delayed", keywords: []string{"delayed", "delays", "postponed", "paused", "suspended"}},
	{kind: "trial_safety_concern", severity: SeverityHigh, status: "Safety Concern", keywords: []string{"safety concern", "adverse event", "serious adverse", "safety signal", "death", "deaths"}},
	{kind: "trial_recruiting", severity: SeverityMedium, status: "Recruiting", keywords: []string{"recruiting", "enrolling", "enrollment", "enrolment"}},
	{kind: "trial_completed", severity: SeverityMedium, status: "Completed", keywords: []string{"completed", "completes", "completion"}},
	{kind: "trial_results", severity: SeverityMedium, status: "Results Available", keywords: []string{"results", "topline", "top-line", "readout", "data"}},
}

var regulatoryFamilies = []keywordFamily{
	{kind: "warning_letter", severity: SeverityHigh, keywords: []string{"warning letter"}},
	{kind: "compliance_violation", severity: SeverityHigh, keywords: []string{"violation", "non-compliance", "noncompliance", "consent decree", "cgmp deficienc"}},
	{kind: "drug_recall", severity: SeverityCritical, keywords: []string{"recall"}},
	{kind: "safety_alert", severity: SeverityHigh, keywords: []string{"safety alert", "safety communication", "boxed warning", "black box", "safety warning"}},
	{kind: "regulatory_approval", severity: SeverityMedium, keywords: []string{"approv", "authoriz", "authoris", "clearance", "cleared"}},
	{kind: "regulatory_guidance", severity: SeverityMedium, keywords: []string{"guidance", "guideline", "draft rule", "framework"}},
	{kind: "enforcement_action", severity: SeverityHigh, keywords: []string{"enforcement", "injunction", "seizure", "penalty", "penalties", "fined", "indictment", "criminal"}},
	{kind: "clinical_hold", severity: SeverityCritical, keywords: []string{"clinical hold"}},
	{kind: "inspection_findings", severity: SeverityHigh, keywords: []string{"form 483", "483 observation", "inspection", "observations"}},
}

var financialFamilies = []keywordFamily{
	{kind: "earnings", keywords: []string{"earnings", "quarterly", "revenue", "profit", "eps", "q1", "q2", "q3", "q4", "fiscal"}},
	{kind: "analyst_rating", keywords: []string{"analyst", "upgrade", "downgrade", "price target", "rating", "overweight", "underweight", "outperform"}},
	{kind: "market_news", keywords: []string{"stock", "shares", "market", "ipo", "investor", "trading", "nasdaq", "nyse", "valuation", "funding", "financing"}},
}

var (
	positiveMarketWords = []string{
		"surge", "surges", "surged", "soar", "soars", "soared", "gain", "gains", "rise", "rises", "rose", "rising",
		"jump", "jumps", "jumped", "rally", "rallies", "beat", "beats", "upgrade", "upgraded", "record", "growth",
		"boost", "boosts", "climb", "climbs", "climbed", "outperform", "strong", "higher",
	}
	negativeMarketWords = []string{
		"fall", "falls", "fell", "drop", "drops", "dropped", "plunge", "plunges", "plunged", "decline", "declines",
		"declined", "slump", "miss", "misses", "missed", "downgrade", "downgraded", "loss", "losses", "cut", "cuts",
		"tumble", "tumbles", "tumbled", "sink", "sinks", "sank", "slide", "slides", "weak", "weaker", "underperform", "lower",
	}
)

var companyLexicon = []lexiconEntry{
	{canonical: "Pfizer", names: []string{"pfizer"}},
	{canonical: "Moderna", names: []string{"moderna"}},
	{canonical: "Johnson & Johnson", acronyms: []string{"J&J"}, names: []string{"johnson & johnson", "johnson and johnson", "janssen"}},
	{canonical: "Merck", acronyms: []string{"MSD"}, names: []string{"merck"}},
	{canonical: "AbbVie", names: []string{"abbvie"}},
	{canonical: "Novartis", names: []string{"novartis"}},
	{canonical: "Roche", names: []string{"roche", "genentech"}},
	{canonical: "AstraZeneca", names: []string{"astrazeneca"}},
	{canonical: "Sanofi", names: []string{"sanofi"}},
	{canonical: "GSK", acronyms: []string{"GSK"}, names: []string{"glaxosmithkline"}},
	{canonical: "Bristol Myers Squibb", acronyms: []string{"BMS"}, names: []string{"bristol myers squibb", "bristol-myers squibb"}},
	{canonical: "Eli Lilly", names: []string{"eli lilly", "lilly"}},
	{canonical: "Amgen", names: []string{"amgen"}},
	{canonical: "Gilead", names: []string{"gilead"}},
	{canonical: "Biogen", names: []string{"biogen"}},
	{canonical: "Regeneron", names: []string{"regeneron"}},
	{canonical: "Vertex", names: []string{"vertex pharmaceuticals", "vertex"}},
	{canonical: "Novo Nordisk", names: []string{"novo nordisk"}},
	{canonical: "Bayer", names: []string{"bayer"}},
	{canonical: "Takeda", names: []string{"takeda"}},
	{canonical: "Teva", names: []string{"teva"}},
	{canonical: "BioNTech", names: []string{"biontech"}},
	{canonical: "Boehringer Ingelheim", names: []string{"boehringer ingelheim", "boehringer"}},
	{canonical: "Daiichi Sankyo", names: []string{"daiichi sankyo", "daiichi"}},
	{canonical: "Astellas", names: []string{"astellas"}},
	{canonical: "Eisai", names: []string{"eisai"}},
	{canonical: "Alnylam", names: []string{"alnylam"}},
	{canonical: "Incyte", names: []string{"incyte"}},
	{canonical: "BeiGene", names: []string{"beigene"}},
}

var agencyLexicon = []lexiconEntry{
	{canonical: "FDA", acronyms: []string{"FDA"}, names: []string{"food and drug administration"}},
	{canonical: "EMA", acronyms: []string{"EMA"}, names: []string{"european medicines agency"}},
	{canonical: "MHRA", acronyms: []string{"MHRA"}, names: []string{"medicines and healthcare products regulatory agency"}},
	{canonical: "PMDA", acronyms: []string{"PMDA"}, names: []string{"pharmaceuticals and medical devices agency"}},
	{canonical: "Health Canada", names: []string{"health canada"}},
	{canonical: "TGA", acronyms: []string{"TGA"}, names: []string{"therapeutic goods administration"}},
	{canonical: "NMPA", acronyms: []string{"NMPA"}, names: []string{"national medical products administration"}},
	{canonical: "CDSCO", acronyms: []string{"CDSCO"}},
	{canonical: "ANVISA", acronyms: []string{"ANVISA", "Anvisa"}},
	{canonical: "WHO", acronyms: []string{"WHO"}, names: []string{"world health organization"}},
	{canonical: "CDC", acronyms: []string{"CDC"}, names: []string{"centers for disease control"}},
	{canonical: "DEA", acronyms: []string{"DEA"}, names: []string{"drug enforcement administration"}},
	{canonical: "FTC", acronyms: []string{"FTC"}, names: []string{"federal trade commission"}},
}

var conditionLexicon = []lexiconEntry{
	{canonical: "breast cancer", names: []string{"breast cancer"}},
	{canonical: "lung cancer", names: []string{"lung cancer", "nsclc"}},
	{canonical: "prostate cancer", names: []string{"prostate cancer"}},
	{canonical: "cancer", names: []string{"cancer", "tumor", "tumour", "oncology"}},
	{canonical: "leukemia", names: []string{"leukemia", "leukaemia"}},
	{canonical: "lymphoma", names: []string{"lymphoma"}},
	{canonical: "melanoma", names: []string{"melanoma"}},
	{canonical: "multiple myeloma", names: []string{"myeloma"}},
	{canonical: "diabetes", names: []string{"diabetes", "diabetic"}},
	{canonical: "obesity", names: []string{"obesity", "weight loss"}},
	{canonical: "Alzheimer's disease", names: []string{"alzheimer"}},
	{canonical: "Parkinson's disease", names: []string{"parkinson"}},
	{canonical: "multiple sclerosis", names: []string{"multiple sclerosis"}},
	{canonical: "ALS", acronyms: []string{"ALS"}, names: []string{"amyotrophic lateral sclerosis"}},
	{canonical: "heart failure", names: []string{"heart failure"}},
	{canonical: "hypertension", names: []string{"hypertension"}},
	{canonical: "asthma", names: []string{"asthma"}},
	{canonical: "COPD", names: []string{"copd"}},
	{canonical: "COVID-19", names: []string{"covid-19", "covid", "sars-cov-2"}},
	{canonical: "HIV", names: []string{"hiv"}},
	{canonical: "hepatitis", names: []string{"hepatitis"}},
	{canonical: "influenza", names: []string{"influenza", "flu"}},
	{canonical: "RSV", names: []string{"rsv", "respiratory syncytial virus"}},
	{canonical: "rheumatoid arthritis", names: []string{"rheumatoid arthritis"}},
	{canonical: "psoriasis", names: []string{"psoriasis"}},
	{canonical: "Crohn's disease", names: []string{"crohn"}},
	{canonical: "ulcerative colitis", names: []string{"ulcerative colitis"}},
	{canonical: "depression", names: []string{"depression", "depressive"}},
	{canonical: "schizophrenia", names: []string{"schizophrenia"}},
	{canonical: "sickle cell disease", names: []string{"sickle cell"}},
	{canonical: "cystic fibrosis", names: []string{"cystic fibrosis"}},
	{canonical: "hemophilia", names: []string{"hemophilia", "haemophilia"}},
	{canonical: "Duchenne muscular dystrophy", names: []string{"duchenne"}},
	{canonical: "migraine", names: []string{"migraine"}},
}

var patentTypeLexicon = []lexiconEntry{
	{canonical: "utility", names: []string{"utility patent", "utility"}},
	{canonical: "design", names: []string{"design patent"}},
	{canonical: "plant", names: []string{"plant patent"}},
	{canonical: "provisional", names: []string{"provisional"}},
	{canonical: "continuation", names: []string{"continuation"}},
	{canonical: "composition of matter", names: []string{"composition of matter", "composition-of-matter"}},
	{canonical: "method of use", names: []string{"method of use", "method-of-use", "method of treatment"}},
	{canonical: "formulation", names: []string{"formulation"}},
	{canonical: "biosimilar", names: []string{"biosimilar"}},
}

var (
	drugStems    = []string{"mab", "nib", "ciclib", "parib", "vir", "tide", "statin", "pril", "sartan", "parin", "cillin", "mycin", "olol", "prazole", "lukast", "cept", "gliptin", "floxacin"}
	drugStopList = map[string]bool{
		"peptide": true, "peptides": true, "nucleotide": true, "oligonucleotide": true, "polypeptide": true,
		"concept": true, "except": true, "accept": true, "intercept": true, "precept": true,
	}
	maxDrugs = 5

	phasePattern = regexp.MustCompile(`phase[\s-]*(iv|i{1,3}|[1-4])([ab])?(?:\s*/\s*(iv|i{1,3}|[1-4])([ab])?)?\b`)
	romanPhases  = map[string]string{"i": "1", "ii": "2", "iii": "3", "iv": "4"}
)

// Extract classifies lower-cased text for a category. original is the
// un-lowered text used for case-sensitive acronym matching.
func Extract(category Category, text, original string) ExtractedInfo {
	switch category {
	case CategoryPharmaceutical:
		return ExtractedInfo{Pharmaceutical: extractPharmaceutical(text, original)}
	case CategoryPatents:
		return ExtractedInfo{Patents: extractPatents(text)}
	case CategoryClinicalTrials:
		return ExtractedInfo{ClinicalTrials: extractClinicalTrial(text, original)}
	case CategoryRegulatory:
		return ExtractedInfo{Regulatory: extractRegulatory(text, original)}
	case CategoryFinancial:
		return ExtractedInfo{Financial: extractFinancial(text)}
	}
	return ExtractedInfo{}
}

func extractPharmaceutical(text, original string) *PharmaceuticalInfo {
	info := &PharmaceuticalInfo{
		Type:      "general",
		Companies: matchLexicon(companyLexicon, text, original),
		Drugs:     extractDrugs(text),
	}
	if f, ok := firstFamily(pharmaFamilies, text); ok {
		info.Type = f.kind
	}
	info.Regulatory = hasAny(text, "fda", "ema", "regulator", "approval", "approved") ||
		len(matchLexicon(agencyLexicon, text, original)) > 0
	return info
}

func extractPatents(text string) *PatentInfo {
	info := &PatentInfo{
		Type:        "general",
		PatentTypes: matchLexicon(patentTypeLexicon, text, ""),
	}
	if f, ok := firstFamily(patentFamilies, text); ok {
		info.Type = f.kind
	}
	info.Legal = info.Type == "patent_litigation" || hasAny(text, "legal", "settlement", "litigation", "lawsuit")
	return info
}

func extractClinicalTrial(text, original string) *ClinicalTrialInfo {
	info := &ClinicalTrialInfo{
		Type:        "general",
		Phases:      extractPhases(text),
		Conditions:  matchLexicon(conditionLexicon, text, original),
		Companies:   matchLexicon(companyLexicon, text, original),
		TrialStatus: "Unknown",
		Severity:    SeverityMedium,
	}
	if f, ok := firstFamily(trialFamilies, text); ok {
		info.Type = f.kind
		info.TrialStatus = f.status
		info.Severity = f.severity
	}
	return info
}

func extractRegulatory(text, original string) *RegulatoryInfo {
	info := &RegulatoryInfo{
		Type:               "general",
		RegulatoryAgencies: matchLexicon(agencyLexicon, text, original),
		Companies:          matchLexicon(companyLexicon, text, original),
		Severity:           SeverityMedium,
	}
	if f, ok := firstFamily(regulatoryFamilies, text); ok {
		info.Type = f.kind
		info.Severity = f.severity
	}
	switch info.Type {
	case "warning_letter", "compliance_violation", "enforcement_action", "inspection_findings":
		info.Compliance = true
	default:
		info.Compliance = hasAny(text, "compliance")
	}
	return info
}

func extractFinancial(text string) *FinancialInfo {
	info := &FinancialInfo{Type: "general", MarketImpact: "neutral"}
	if f, ok := firstFamily(financialFamilies, text); ok {
		info.Type = f.kind
	}

	positive := countAny(text, positiveMarketWords...)
	negative := countAny(text, negativeMarketWords...)
	switch {
	case positive > negative:
		info.MarketImpact = "positive"
	case negative > positive:
		info.MarketImpact = "negative"
	}
	return info
}

// RelevanceFor maps the severity signal onto a relevance tier.
func RelevanceFor(info ExtractedInfo) Relevance {
	switch info.Severity() {
	case SeverityCritical, SeverityHigh:
		return RelevanceHigh
	default:
		return RelevanceMedium
	}
}

func firstFamily(families []keywordFamily, text string) (keywordFamily, bool) {
	for _, f := range families {
		if hasAny(text, f.keywords...) {
			return f, true
		}
	}
	return keywordFamily{}, false
}

// hasAny reports whether any keyword occurs in text starting at a word
// boundary. Keywords may be stems, so the end is only anchored for short
// keywords like "eps" or "ema".
func hasAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if indexAtBoundary(text, kw, len(kw) <= 3) >= 0 {
			return true
		}
	}
	return false
}

// countAny counts distinct words from words present in text.
func countAny(text string, words ...string) int {
	n := 0
	for _, w := range words {
		if containsWord(text, w) {
			n++
		}
	}
	return n
}

func containsWord(text, word string) bool {
	return indexAtBoundary(text, word, true) >= 0
}

func indexAtBoundary(text, kw string, wholeWord bool) int {
	if kw == "" {
		return -1
	}
	offset := 0
	for {
		i := strings.Index(text[offset:], kw)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(kw)
		if isBoundary(text, start-1) && (!wholeWord || isBoundary(text, end)) {
			return start
		}
		offset = start + 1
	}
}

func isBoundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	r := rune(text[i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// matchLexicon returns canonical names found in text, dropping any match
// that is contained in a more specific match ("cancer" vs "breast cancer").
func matchLexicon(lexicon []lexiconEntry, text, original string) []string {
	var found []string
	for _, entry := range lexicon {
		if entry.matches(text, original) {
			found = append(found, entry.canonical)
		}
	}

	out := make([]string, 0, len(found))
	for _, f := range found {
		general := false
		for _, other := range found {
			if other != f && containsWord(strings.ToLower(other), strings.ToLower(f)) {
				general = true
				break
			}
		}
		if !general {
			out = append(out, f)
		}
	}
	return out
}

func (e lexiconEntry) matches(text, original string) bool {
	for _, a := range e.acronyms {
		if original != "" && containsWord(original, a) {
			return true
		}
	}
	for _, n := range e.names {
		if containsWord(text, n) {
			return true
		}
	}
	return false
}

func extractDrugs(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	seen := make(map[string]bool)
	drugs := []string{}
	for _, w := range words {
		if utf8.RuneCountInString(w) < 6 || drugStopList[w] || seen[w] {
			continue
		}
		for _, stem := range drugStems {
			if strings.HasSuffix(w, stem) {
				seen[w] = true
				drugs = append(drugs, capitalize(w))
				break
			}
		}
		if len(drugs) == maxDrugs {
			break
		}
	}
	return drugs
}

func extractPhases(text string) []string {
	phases := []string{}
	seen := make(map[string]bool)
	for _, m := range phasePattern.FindAllStringSubmatch(text, -1) {
		phase := "Phase " + phaseNumber(m[1]) + m[2]
		if m[3] != "" {
			phase += "/" + phaseNumber(m[3]) + m[4]
		}
		if !seen[phase] {
			seen[phase] = true
			phases = append(phases, phase)
		}
	}
	return phases
}

func phaseNumber(s string) string {
	if n, ok := romanPhases[s]; ok {
		return n
	}
	return s
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + w[size:]
}
