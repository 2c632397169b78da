package agent

import (
	"testing"

	"github.com/facturex/backend/pkg/enums"
)

func TestParseMessages(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		kind     enums.TransactionKind
		amount   string
		currency enums.Currency
		account  string
		category string
	}{
		{
			name:     "expense with k suffix and account",
			text:     "30k essence mpesa",
			kind:     enums.TransactionKindExpense,
			amount:   "30000",
			currency: enums.CurrencyCDF,
			account:  "M-Pesa",
			category: "62 - Transport",
		},
		{
			name:     "revenue in dollars",
			text:     "Reçu 500$ vente marchandise",
			kind:     enums.TransactionKindRevenue,
			amount:   "500",
			currency: enums.CurrencyUSD,
			account:  "Cash Bureau",
		},
		{
			name:     "explicit expense keyword",
			text:     "dépense 15000 cdf taxi airtel",
			kind:     enums.TransactionKindExpense,
			amount:   "15000",
			currency: enums.CurrencyCDF,
			account:  "Airtel Money",
			category: "62 - Transport",
		},
		{
			name:     "bare number defaults to expense",
			text:     "2500 crédit téléphone",
			kind:     enums.TransactionKindExpense,
			amount:   "2500",
			currency: enums.CurrencyCDF,
			account:  "Cash Bureau",
			category: "64 - Télécom",
		},
		{
			name:     "encaissement is revenue",
			text:     "encaissement 1200 usd rawbank",
			kind:     enums.TransactionKindRevenue,
			amount:   "1200",
			currency: enums.CurrencyUSD,
			account:  "Rawbank",
		},
		{
			name:     "large figure next to k is left alone",
			text:     "25000k loyer",
			kind:     enums.TransactionKindExpense,
			amount:   "25000",
			currency: enums.CurrencyCDF,
			account:  "Cash Bureau",
			category: "69 - Loyer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := Parse(tt.text)
			if intent.IsQuery {
				t.Fatal("transaction message must not read as a query")
			}
			if intent.Kind != tt.kind {
				t.Fatalf("kind: expected %s, got %s", tt.kind, intent.Kind)
			}
			if intent.Amount == nil {
				t.Fatal("expected an amount")
			}
			if intent.Amount.String() != tt.amount {
				t.Fatalf("amount: expected %s, got %s", tt.amount, intent.Amount)
			}
			if intent.Currency != tt.currency {
				t.Fatalf("currency: expected %s, got %s", tt.currency, intent.Currency)
			}
			if intent.AccountName != tt.account {
				t.Fatalf("account: expected %q, got %q", tt.account, intent.AccountName)
			}
			if tt.category != "" && intent.Category != tt.category {
				t.Fatalf("category: expected %q, got %q", tt.category, intent.Category)
			}
		})
	}
}

func TestParseBalanceQuestion(t *testing.T) {
	for _, text := range []string{"solde ?", "c'est quoi le bilan", "combien il reste"} {
		intent := Parse(text)
		if !intent.IsQuery {
			t.Fatalf("%q should read as a query", text)
		}
		if intent.Confidence != 1 {
			t.Fatalf("queries are unambiguous, got confidence %v", intent.Confidence)
		}
	}
}

func TestParseConfidenceScoring(t *testing.T) {
	full := Parse("30k essence mpesa")
	if full.Confidence != 0.8 {
		t.Fatalf("complete message should score 0.8, got %v", full.Confidence)
	}

	noAmount := Parse("acheté du carburant")
	if noAmount.Amount != nil {
		t.Fatal("no amount expected")
	}
	if noAmount.Confidence >= full.Confidence {
		t.Fatalf("missing amount must lower confidence, got %v", noAmount.Confidence)
	}

	noKind := Parse("bonjour tout le monde")
	if noKind.Kind != "" {
		t.Fatalf("no kind expected, got %s", noKind.Kind)
	}
	if noKind.Confidence > 0.1 {
		t.Fatalf("kindless, amountless message should score near zero, got %v", noKind.Confidence)
	}
}

func TestDetectCommand(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"/solde", "/solde"},
		{"/historique", "/historique"},
		{"/aide", "/aide"},
		{"solde ?", "/solde"},
		{"bilan", "/solde"},
		{"aide", "/aide"},
		{"historique", "/historique"},
		{"paiement facture client", ""},
		{"30k essence mpesa", ""},
	}
	for _, tt := range tests {
		cmd := DetectCommand(tt.text)
		if tt.want == "" {
			if cmd != nil {
				t.Fatalf("%q should not be a command, got %s", tt.text, cmd.Name)
			}
			continue
		}
		if cmd == nil || cmd.Name != tt.want {
			t.Fatalf("%q: expected %s, got %+v", tt.text, tt.want, cmd)
		}
	}
}

func TestDetectCommandParams(t *testing.T) {
	cmd := DetectCommand("/historique 7 jours")
	if cmd == nil || cmd.Name != "/historique" || cmd.Params != "7 jours" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
}

func TestDetectReply(t *testing.T) {
	for _, text := range []string{"oui", "OK", "confirmer", " Oui "} {
		if DetectReply(text) != ReplyConfirm {
			t.Fatalf("%q should confirm", text)
		}
	}
	for _, text := range []string{"non", "annuler", "cancel"} {
		if DetectReply(text) != ReplyCancel {
			t.Fatalf("%q should cancel", text)
		}
	}
	if DetectReply("30k essence") != ReplyNone {
		t.Fatal("transaction text is not a reply")
	}
}
