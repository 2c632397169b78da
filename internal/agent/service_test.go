package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturex/backend/internal/pending"
	"github.com/facturex/backend/internal/transactions"
	"github.com/facturex/backend/pkg/config"
	"github.com/facturex/backend/pkg/db/models"
	"github.com/facturex/backend/pkg/enums"
	pkgerrors "github.com/facturex/backend/pkg/errors"
	"github.com/facturex/backend/pkg/pagination"
)

type fakeQueue struct {
	proposed   []pending.ProposeInput
	live       *models.PendingTransaction
	confirmErr error
	cancelled  int
}

func (f *fakeQueue) Propose(_ context.Context, input pending.ProposeInput) (*models.PendingTransaction, error) {
	f.proposed = append(f.proposed, input)
	entry := &models.PendingTransaction{
		ID:             uuid.New(),
		OrganizationID: input.OrganizationID,
		ChannelID:      input.ChannelID,
		Kind:           input.Kind,
		Amount:         input.Amount,
		Currency:       input.Currency,
		Motif:          input.Motif,
		AccountName:    input.AccountName,
		Category:       input.Category,
		Status:         enums.PendingStatusPending,
		ExpiresAt:      time.Now().Add(5 * time.Minute),
	}
	f.live = entry
	return entry, nil
}

func (f *fakeQueue) Confirm(_ context.Context, orgID uuid.UUID, channelID string) (*models.Transaction, error) {
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	if f.live == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no live proposal for channel")
	}
	transaction := &models.Transaction{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Kind:           f.live.Kind,
		Amount:         f.live.Amount,
		Currency:       f.live.Currency,
		Motif:          f.live.Motif,
		Status:         enums.TransactionStatusSettled,
	}
	f.live = nil
	return transaction, nil
}

func (f *fakeQueue) Cancel(_ context.Context, orgID uuid.UUID, channelID string) error {
	f.cancelled++
	f.live = nil
	return nil
}

func (f *fakeQueue) GetLive(_ context.Context, orgID uuid.UUID, channelID string) (*models.PendingTransaction, error) {
	if f.live == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no live proposal for channel")
	}
	return f.live, nil
}

type fakeAccountLister struct {
	accounts []models.Account
}

func (f *fakeAccountLister) List(_ context.Context, orgID uuid.UUID, includeInactive bool) ([]models.Account, error) {
	return f.accounts, nil
}

type fakeTransactionLister struct {
	rows []models.Transaction
}

func (f *fakeTransactionLister) List(_ context.Context, orgID uuid.UUID, filter transactions.ListFilter, params pagination.Params) ([]models.Transaction, string, error) {
	return f.rows, "", nil
}

func newTestService(t *testing.T) (Service, *fakeQueue, *fakeAccountLister, *fakeTransactionLister) {
	t.Helper()
	queue := &fakeQueue{}
	accounts := &fakeAccountLister{accounts: []models.Account{
		{Name: "Cash Bureau", Balance: decimal.NewFromInt(250000), Currency: enums.CurrencyCDF, Active: true},
		{Name: "M-Pesa", Balance: decimal.NewFromInt(80000), Currency: enums.CurrencyCDF, Active: true},
	}}
	lister := &fakeTransactionLister{rows: []models.Transaction{
		{Motif: "essence", Amount: decimal.NewFromInt(30000), Currency: enums.CurrencyCDF, Kind: enums.TransactionKindExpense},
	}}
	svc, err := NewService(queue, accounts, lister, config.AgentConfig{
		PendingTTL:         5 * time.Minute,
		MinConfidence:      "0.3",
		DefaultAccountName: "Cash Bureau",
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, queue, accounts, lister
}

func TestHandleMessageProposesExpense(t *testing.T) {
	svc, queue, _, _ := newTestService(t)
	orgID := uuid.New()

	resp, err := svc.HandleMessage(context.Background(), orgID, "chan-1", "30k essence mpesa")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.Pending == nil {
		t.Fatal("expected a pending proposal")
	}
	if len(queue.proposed) != 1 {
		t.Fatalf("expected one proposal, got %d", len(queue.proposed))
	}
	proposal := queue.proposed[0]
	if proposal.Kind != enums.TransactionKindExpense {
		t.Fatalf("expected expense, got %s", proposal.Kind)
	}
	if !proposal.Amount.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("expected 30000, got %s", proposal.Amount)
	}
	if proposal.AccountName != "M-Pesa" {
		t.Fatalf("expected M-Pesa, got %q", proposal.AccountName)
	}
	if !strings.Contains(resp.Text, "oui/non") {
		t.Fatalf("response must ask for confirmation: %q", resp.Text)
	}
}

func TestHandleMessageAsksForClarification(t *testing.T) {
	svc, queue, _, _ := newTestService(t)

	resp, err := svc.HandleMessage(context.Background(), uuid.New(), "chan-1", "acheté quelque chose")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.Pending != nil || len(queue.proposed) != 0 {
		t.Fatal("no proposal may be created without an amount")
	}
	if !strings.Contains(resp.Text, "montant") {
		t.Fatalf("expected a clarification request, got %q", resp.Text)
	}
}

func TestHandleMessageConfirmFlow(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	orgID := uuid.New()

	if _, err := svc.HandleMessage(context.Background(), orgID, "chan-1", "30k essence mpesa"); err != nil {
		t.Fatalf("propose: %v", err)
	}
	resp, err := svc.HandleMessage(context.Background(), orgID, "chan-1", "oui")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if resp.Transaction == nil {
		t.Fatal("expected the created transaction in the response")
	}
	if !strings.Contains(resp.Text, "enregistrée") {
		t.Fatalf("unexpected confirmation text: %q", resp.Text)
	}
}

func TestHandleMessageConfirmWithoutProposal(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	resp, err := svc.HandleMessage(context.Background(), uuid.New(), "chan-1", "oui")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.Transaction != nil {
		t.Fatal("no transaction expected")
	}
	if !strings.Contains(resp.Text, "Aucune transaction en attente") {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
}

func TestHandleMessageExpiredProposal(t *testing.T) {
	svc, queue, _, _ := newTestService(t)
	queue.confirmErr = pkgerrors.New(pkgerrors.CodeExpired, "proposal expired before confirmation")

	resp, err := svc.HandleMessage(context.Background(), uuid.New(), "chan-1", "oui")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(resp.Text, "expiré") {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
}

func TestHandleMessageCancel(t *testing.T) {
	svc, queue, _, _ := newTestService(t)

	resp, err := svc.HandleMessage(context.Background(), uuid.New(), "chan-1", "non")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if queue.cancelled != 1 {
		t.Fatal("cancel must reach the queue")
	}
	if !strings.Contains(resp.Text, "annulée") {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
}

func TestHandleMessageBalances(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	for _, text := range []string{"/solde", "solde ?"} {
		resp, err := svc.HandleMessage(context.Background(), uuid.New(), "chan-1", text)
		if err != nil {
			t.Fatalf("%q: %v", text, err)
		}
		if !strings.Contains(resp.Text, "Cash Bureau") || !strings.Contains(resp.Text, "M-Pesa") {
			t.Fatalf("%q: balances missing from %q", text, resp.Text)
		}
	}
}

func TestHandleMessageHistory(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	resp, err := svc.HandleMessage(context.Background(), uuid.New(), "chan-1", "/historique")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(resp.Text, "essence") {
		t.Fatalf("history missing from %q", resp.Text)
	}
}

func TestHandleMessageHelpAndUnknown(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	resp, err := svc.HandleMessage(context.Background(), uuid.New(), "chan-1", "/aide")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(resp.Text, "/solde") {
		t.Fatalf("help must list commands: %q", resp.Text)
	}

	resp, err = svc.HandleMessage(context.Background(), uuid.New(), "chan-1", "/inconnu")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(resp.Text, "Commande inconnue") {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
}

func TestHandleMessageRejectsEmptyText(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	if _, err := svc.HandleMessage(context.Background(), uuid.New(), "chan-1", "   "); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
