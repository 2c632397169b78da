package agent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/facturex/backend/pkg/enums"
)

// DefaultAccountName receives transactions whose message names no account.
const DefaultAccountName = "Cash Bureau"

// genericMotif is the fallback label when no description survives cleaning.
const genericMotif = "Divers"

// ParsedIntent is the structured reading of one free-text message.
type ParsedIntent struct {
	// IsQuery is set for balance questions ("solde ?", "bilan"); no
	// transaction should be proposed from those.
	IsQuery     bool
	Kind        enums.TransactionKind
	Amount      *decimal.Decimal
	Currency    enums.Currency
	Motif       string
	AccountName string
	Category    string
	Confidence  float64
}

// Command is a slash command extracted from a chat message.
type Command struct {
	Name   string
	Params string
}

// Reply classifies a short confirmation answer.
type Reply int

const (
	ReplyNone Reply = iota
	ReplyConfirm
	ReplyCancel
)

var (
	amountRe      = regexp.MustCompile(`(?i)(\d+[.,]?\d*)\s*(k|cdf|usd|\$)?`)
	stripAmountRe = regexp.MustCompile(`(?i)\d+[.,]?\d*\s*(k|cdf|usd|\$)?`)
	stripKindRe   = regexp.MustCompile(`(?i)\b(reçu|recu|revenu|dépense|depense|acheté|achete|payé|paye|encaissement|entrée|entree|vente)\b`)
	stripAcctRe   = regexp.MustCompile(`(?i)\b(mpesa|m-pesa|airtel|illico|illicocash|orange|rawbank|alipay|cash)\b`)
	afterAmountRe = regexp.MustCompile(`(?i)\d+[.,]?\d*\s*(k|cdf|usd|\$)?\s+(.+)`)
	dashRe        = regexp.MustCompile(`[-–—]`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

var revenueMarkers = []string{
	"revenu", "reçu", "recu", "vente", "paiement facture", "paiement client",
	"entrée", "entree", "encaissement", "client a payé", "client a paye",
}

var expenseMarkers = []string{"dépense", "depense", "acheté", "achete", "frais"}

var accountKeywords = []struct {
	marker  string
	account string
}{
	{"m-pesa", "M-Pesa"},
	{"mpesa", "M-Pesa"},
	{"airtel", "Airtel Money"},
	{"illico", "Illicocash"},
	{"orange", "Orange Money"},
	{"rawbank", "Rawbank"},
	{"alipay", "Alipay"},
}

var categoryRules = []struct {
	re       *regexp.Regexp
	category string
}{
	{regexp.MustCompile(`essence|carburant|gasoil|taxi|transport|bus|moto`), "62 - Transport"},
	{regexp.MustCompile(`repas|restaurant|bouffe|nourriture|déjeuner|diner`), "63 - Frais repas"},
	{regexp.MustCompile(`téléphone|telephone|crédit|credit|communication|airtime`), "64 - Télécom"},
	{regexp.MustCompile(`course|marché|marche|alimentation|supermarché|achat`), "61 - Achats"},
	{regexp.MustCompile(`bureau|papeterie|matériel|materiel|imprimante|ordinateur`), "65 - Fournitures bureau"},
	{regexp.MustCompile(`entrepôt|entrepot|stockage|douane|transit`), "66 - Logistique"},
	{regexp.MustCompile(`banque|frais bancaire|retrait|transfert`), "67 - Frais bancaires"},
	{regexp.MustCompile(`salaire|employé|employe|personnel|agent`), "68 - Salaires"},
	{regexp.MustCompile(`loyer|location|bail`), "69 - Loyer"},
	{regexp.MustCompile(`fournisseur|1688|alibaba|taobao`), "60 - Achats fournisseurs"},
}

const fallbackCategory = "68 - Charges diverses"

// Parse reads a free-text message into a transaction intent. The heuristics
// target short French bookkeeping messages ("30k essence mpesa"); anything
// ambiguous lowers the confidence instead of failing.
func Parse(text string) ParsedIntent {
	lower := strings.ToLower(strings.TrimSpace(text))

	if strings.Contains(lower, "solde") || strings.Contains(lower, "bilan") || strings.Contains(lower, "combien") {
		return ParsedIntent{IsQuery: true, Currency: enums.CurrencyCDF, Confidence: 1}
	}

	intent := ParsedIntent{Currency: enums.CurrencyCDF}

	hasRevenue := containsAny(lower, revenueMarkers)
	hasExpense := containsAny(lower, expenseMarkers) ||
		(!hasRevenue && (strings.Contains(lower, "payé") || strings.Contains(lower, "paye")))
	switch {
	case hasRevenue:
		intent.Kind = enums.TransactionKindRevenue
	case hasExpense:
		intent.Kind = enums.TransactionKindExpense
	case strings.ContainsAny(text, "0123456789"):
		// A bare number reads as an expense, the common case for field staff.
		intent.Kind = enums.TransactionKindExpense
	}

	if strings.Contains(lower, "usd") || strings.Contains(lower, "$") || strings.Contains(lower, "dollar") {
		intent.Currency = enums.CurrencyUSD
	}

	intent.Amount = extractAmount(text)
	intent.Motif = extractMotif(text)
	intent.AccountName = detectAccount(lower)
	intent.Category = suggestCategory(intent.Motif)
	intent.Confidence = scoreConfidence(intent)
	return intent
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func extractAmount(text string) *decimal.Decimal {
	match := amountRe.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	raw := strings.ReplaceAll(match[1], ",", ".")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	amount := decimal.NewFromFloat(value)
	// "30k" means 30000; an already-large figure next to a k is left alone.
	if strings.EqualFold(match[2], "k") && amount.LessThan(decimal.NewFromInt(10000)) {
		amount = amount.Mul(decimal.NewFromInt(1000))
	}
	return &amount
}

func extractMotif(text string) string {
	cleaned := stripAmountRe.ReplaceAllString(text, "")
	cleaned = stripKindRe.ReplaceAllString(cleaned, "")
	cleaned = stripAcctRe.ReplaceAllString(cleaned, "")
	cleaned = dashRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(spaceRe.ReplaceAllString(cleaned, " "))
	if len(cleaned) > 1 {
		return cleaned
	}

	if match := afterAmountRe.FindStringSubmatch(text); match != nil {
		trailing := strings.TrimSpace(stripAcctRe.ReplaceAllString(match[2], ""))
		if trailing != "" {
			return trailing
		}
	}
	return genericMotif
}

func detectAccount(lower string) string {
	for _, keyword := range accountKeywords {
		if strings.Contains(lower, keyword.marker) {
			return keyword.account
		}
	}
	return DefaultAccountName
}

func suggestCategory(motif string) string {
	lower := strings.ToLower(motif)
	for _, rule := range categoryRules {
		if rule.re.MatchString(lower) {
			return rule.category
		}
	}
	return fallbackCategory
}

func scoreConfidence(intent ParsedIntent) float64 {
	confidence := 0.8
	if intent.Kind == "" {
		confidence -= 0.3
	}
	if intent.Amount == nil {
		confidence -= 0.5
	}
	if intent.Motif == genericMotif {
		confidence -= 0.1
	}
	if confidence < 0 {
		return 0
	}
	return confidence
}

// DetectCommand recognizes slash commands plus a few bare keywords in short
// messages ("solde ?" counts, "paiement facture client" does not).
func DetectCommand(text string) *Command {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return nil
	}

	if strings.HasPrefix(lower, "/") {
		parts := strings.Fields(lower)
		return &Command{Name: parts[0], Params: strings.Join(parts[1:], " ")}
	}

	if len(strings.Fields(lower)) > 3 {
		return nil
	}
	shorthand := []struct {
		markers []string
		name    string
	}{
		{[]string{"solde", "bilan", "combien"}, "/solde"},
		{[]string{"aide", "help", "commandes"}, "/aide"},
		{[]string{"historique", "dernières", "dernieres"}, "/historique"},
	}
	for _, candidate := range shorthand {
		if containsAny(lower, candidate.markers) {
			return &Command{Name: candidate.name}
		}
	}
	return nil
}

// DetectReply classifies confirmation answers to a live proposal.
func DetectReply(text string) Reply {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "oui", "ok", "yes", "confirmer", "confirme":
		return ReplyConfirm
	case "non", "annuler", "annule", "cancel":
		return ReplyCancel
	default:
		return ReplyNone
	}
}
