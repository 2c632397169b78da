package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/facturex/backend/internal/pending"
	"github.com/facturex/backend/internal/transactions"
	"github.com/facturex/backend/pkg/config"
	"github.com/facturex/backend/pkg/db/models"
	"github.com/facturex/backend/pkg/enums"
	pkgerrors "github.com/facturex/backend/pkg/errors"
	"github.com/facturex/backend/pkg/pagination"
)

const historyPageSize = 5

type accountLister interface {
	List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]models.Account, error)
}

type transactionLister interface {
	List(ctx context.Context, orgID uuid.UUID, filter transactions.ListFilter, params pagination.Params) ([]models.Transaction, string, error)
}

// Service turns chat messages into ledger actions. Every message resolves to
// exactly one of: a command answer, a confirmation outcome, a new proposal,
// or a clarification request.
type Service interface {
	HandleMessage(ctx context.Context, orgID uuid.UUID, channelID, text string) (*Response, error)
	GetPending(ctx context.Context, orgID uuid.UUID, channelID string) (*models.PendingTransaction, error)
}

// Response is what goes back to the chat channel.
type Response struct {
	Text        string                     `json:"text"`
	Pending     *models.PendingTransaction `json:"pending,omitempty"`
	Transaction *models.Transaction        `json:"transaction,omitempty"`
}

type service struct {
	queue          pending.Service
	accounts       accountLister
	transactions   transactionLister
	minConfidence  float64
	defaultAccount string
}

// NewService wires the chat agent with its collaborators.
func NewService(queue pending.Service, accounts accountLister, lister transactionLister, cfg config.AgentConfig) (Service, error) {
	if queue == nil {
		return nil, fmt.Errorf("pending service required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account lister required")
	}
	if lister == nil {
		return nil, fmt.Errorf("transaction lister required")
	}
	minConfidence, err := strconv.ParseFloat(cfg.MinConfidence, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid minimum confidence %q: %w", cfg.MinConfidence, err)
	}
	defaultAccount := cfg.DefaultAccountName
	if defaultAccount == "" {
		defaultAccount = DefaultAccountName
	}
	return &service{
		queue:          queue,
		accounts:       accounts,
		transactions:   lister,
		minConfidence:  minConfidence,
		defaultAccount: defaultAccount,
	}, nil
}

func (s *service) HandleMessage(ctx context.Context, orgID uuid.UUID, channelID, text string) (*Response, error) {
	if strings.TrimSpace(text) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message text is required")
	}

	switch DetectReply(text) {
	case ReplyConfirm:
		return s.confirm(ctx, orgID, channelID)
	case ReplyCancel:
		if err := s.queue.Cancel(ctx, orgID, channelID); err != nil {
			return nil, err
		}
		return &Response{Text: "Transaction annulée."}, nil
	}

	if cmd := DetectCommand(text); cmd != nil {
		return s.runCommand(ctx, orgID, cmd)
	}

	intent := Parse(text)
	if intent.IsQuery {
		return s.balances(ctx, orgID)
	}
	return s.propose(ctx, orgID, channelID, intent)
}

func (s *service) GetPending(ctx context.Context, orgID uuid.UUID, channelID string) (*models.PendingTransaction, error) {
	return s.queue.GetLive(ctx, orgID, channelID)
}

func (s *service) confirm(ctx context.Context, orgID uuid.UUID, channelID string) (*Response, error) {
	transaction, err := s.queue.Confirm(ctx, orgID, channelID)
	if err != nil {
		switch {
		case pkgerrors.HasCode(err, pkgerrors.CodeNotFound):
			return &Response{Text: "Aucune transaction en attente de confirmation."}, nil
		case pkgerrors.HasCode(err, pkgerrors.CodeExpired):
			return &Response{Text: "La proposition a expiré. Renvoie le message pour recommencer."}, nil
		default:
			return nil, err
		}
	}
	text := fmt.Sprintf("Transaction enregistrée : %s %s — %s",
		transaction.Amount.StringFixed(2), transaction.Currency, transaction.Motif)
	return &Response{Text: text, Transaction: transaction}, nil
}

func (s *service) runCommand(ctx context.Context, orgID uuid.UUID, cmd *Command) (*Response, error) {
	switch cmd.Name {
	case "/solde", "/soldes":
		return s.balances(ctx, orgID)
	case "/historique":
		return s.history(ctx, orgID)
	case "/aide":
		return &Response{Text: helpText}, nil
	default:
		return &Response{Text: "Commande inconnue. Essaye /aide pour voir les commandes disponibles."}, nil
	}
}

func (s *service) balances(ctx context.Context, orgID uuid.UUID) (*Response, error) {
	accounts, err := s.accounts.List(ctx, orgID, false)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return &Response{Text: "Aucun compte actif."}, nil
	}
	var b strings.Builder
	b.WriteString("Soldes actuels :\n")
	for _, account := range accounts {
		fmt.Fprintf(&b, "• %s : %s %s\n", account.Name, account.Balance.StringFixed(2), account.Currency)
	}
	return &Response{Text: b.String()}, nil
}

func (s *service) history(ctx context.Context, orgID uuid.UUID) (*Response, error) {
	rows, _, err := s.transactions.List(ctx, orgID, transactions.ListFilter{}, pagination.Params{Limit: historyPageSize})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &Response{Text: "Aucune transaction récente."}, nil
	}
	var b strings.Builder
	b.WriteString("Dernières transactions :\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "• %s — %s %s (%s)\n", row.Motif, row.Amount.StringFixed(2), row.Currency, row.Kind)
	}
	return &Response{Text: b.String()}, nil
}

func (s *service) propose(ctx context.Context, orgID uuid.UUID, channelID string, intent ParsedIntent) (*Response, error) {
	if intent.Amount == nil || intent.Kind == "" || intent.Confidence < s.minConfidence {
		return &Response{Text: clarificationText}, nil
	}

	accountName := intent.AccountName
	if accountName == DefaultAccountName {
		accountName = s.defaultAccount
	}
	category := intent.Category
	entry, err := s.queue.Propose(ctx, pending.ProposeInput{
		OrganizationID: orgID,
		ChannelID:      channelID,
		Kind:           intent.Kind,
		Amount:         *intent.Amount,
		Currency:       intent.Currency,
		Motif:          intent.Motif,
		AccountName:    accountName,
		Category:       &category,
	})
	if err != nil {
		return nil, err
	}

	label := "Dépense détectée"
	if intent.Kind == enums.TransactionKindRevenue {
		label = "Revenu détecté"
	}
	text := fmt.Sprintf("%s : %s %s — %s (%s)\nConfirmer ? (oui/non)",
		label, entry.Amount.StringFixed(2), entry.Currency, entry.Motif, entry.AccountName)
	return &Response{Text: text, Pending: entry}, nil
}

const helpText = "Commandes disponibles :\n" +
	"• \"30k essence mpesa\" → Enregistrer une dépense\n" +
	"• \"Reçu 500$ vente\" → Enregistrer un revenu\n" +
	"• /solde — Voir les soldes\n" +
	"• /historique — Dernières transactions\n" +
	"• /aide — Cette aide"

const clarificationText = "Je n'ai pas compris le montant ou le type.\n" +
	"Renvoie le message corrigé. Ex: \"30k essence mpesa\""
