package movements

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/facturex/backend/internal/accounts"
	"github.com/facturex/backend/pkg/db/models"
	"github.com/facturex/backend/pkg/enums"
	pkgerrors "github.com/facturex/backend/pkg/errors"
)

type fakeRepository struct {
	rows []*models.Movement
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(_ context.Context, movement *models.Movement) error {
	movement.ID = uuid.New()
	f.rows = append(f.rows, movement)
	return nil
}

func (f *fakeRepository) FindByID(_ context.Context, orgID, id uuid.UUID) (*models.Movement, error) {
	for _, row := range f.rows {
		if row.ID == id && row.OrganizationID == orgID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) ListByAccount(_ context.Context, orgID, accountID uuid.UUID) ([]models.Movement, error) {
	var out []models.Movement
	for _, row := range f.rows {
		if row.OrganizationID == orgID && row.AccountID == accountID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListByTransaction(_ context.Context, orgID, transactionID uuid.UUID) ([]models.Movement, error) {
	var out []models.Movement
	for _, row := range f.rows {
		if row.OrganizationID == orgID && row.TransactionID != nil && *row.TransactionID == transactionID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListByPayment(_ context.Context, orgID, paymentID uuid.UUID) ([]models.Movement, error) {
	var out []models.Movement
	for _, row := range f.rows {
		if row.OrganizationID == orgID && row.PaymentID != nil && *row.PaymentID == paymentID {
			out = append(out, *row)
		}
	}
	return out, nil
}

type fakeBalances struct {
	accounts map[uuid.UUID]*models.Account
}

func newFakeBalances() *fakeBalances {
	return &fakeBalances{accounts: map[uuid.UUID]*models.Account{}}
}

func (f *fakeBalances) add(orgID uuid.UUID, balance int64) *models.Account {
	account := &models.Account{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           "Caisse",
		Balance:        decimal.NewFromInt(balance),
		Active:         true,
	}
	f.accounts[account.ID] = account
	return account
}

func (f *fakeBalances) Get(_ context.Context, orgID, id uuid.UUID) (*models.Account, error) {
	account, ok := f.accounts[id]
	if !ok || account.OrganizationID != orgID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	copied := *account
	return &copied, nil
}

func (f *fakeBalances) ApplyDelta(_ context.Context, _ *gorm.DB, orgID, id uuid.UUID, delta decimal.Decimal) (accounts.BalanceChange, error) {
	account, ok := f.accounts[id]
	if !ok || account.OrganizationID != orgID {
		return accounts.BalanceChange{}, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	before := account.Balance
	account.Balance = before.Add(delta)
	return accounts.BalanceChange{Before: before, After: account.Balance}, nil
}

func newTestService(t *testing.T) (Service, *fakeRepository, *fakeBalances) {
	t.Helper()
	repo := &fakeRepository{}
	balances := newFakeBalances()
	svc, err := NewService(repo, balances, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, repo, balances
}

func TestRecordCreditMatchesBalances(t *testing.T) {
	svc, repo, balances := newTestService(t)
	orgID := uuid.New()
	account := balances.add(orgID, 500)

	movement, err := svc.Record(context.Background(), nil, RecordInput{
		OrganizationID: orgID,
		AccountID:      account.ID,
		Direction:      enums.MovementDirectionCredit,
		Amount:         decimal.NewFromInt(200),
		Description:    "vente",
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if !movement.BalanceBefore.Equal(decimal.NewFromInt(500)) || !movement.BalanceAfter.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("unexpected balances %s -> %s", movement.BalanceBefore, movement.BalanceAfter)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected one appended row, got %d", len(repo.rows))
	}
}

func TestRecordRejectsNonPositiveAmount(t *testing.T) {
	svc, repo, balances := newTestService(t)
	orgID := uuid.New()
	account := balances.add(orgID, 500)

	_, err := svc.Record(context.Background(), nil, RecordInput{
		OrganizationID: orgID,
		AccountID:      account.ID,
		Direction:      enums.MovementDirectionDebit,
		Amount:         decimal.Zero,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.rows) != 0 {
		t.Fatal("nothing should be appended on validation failure")
	}
}

func TestReverseRestoresBalance(t *testing.T) {
	svc, repo, balances := newTestService(t)
	orgID := uuid.New()
	account := balances.add(orgID, 1000)

	original, err := svc.Record(context.Background(), nil, RecordInput{
		OrganizationID: orgID,
		AccountID:      account.ID,
		Direction:      enums.MovementDirectionDebit,
		Amount:         decimal.NewFromInt(300),
		Description:    "achat",
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}

	reversal, err := svc.Reverse(context.Background(), nil, orgID, original.ID, "annulation achat")
	if err != nil {
		t.Fatalf("Reverse error: %v", err)
	}
	if reversal.Direction != enums.MovementDirectionCredit {
		t.Fatalf("expected credit reversal, got %s", reversal.Direction)
	}
	if reversal.ReversalOf == nil || *reversal.ReversalOf != original.ID {
		t.Fatal("reversal must reference the original movement")
	}
	if !balances.accounts[account.ID].Balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("balance not restored: %s", balances.accounts[account.ID].Balance)
	}
	if len(repo.rows) != 2 {
		t.Fatalf("expected original plus reversal, got %d rows", len(repo.rows))
	}
}

func TestReverseUnknownMovement(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Reverse(context.Background(), nil, uuid.New(), uuid.New(), "")
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReplayConsistentHistory(t *testing.T) {
	svc, _, balances := newTestService(t)
	orgID := uuid.New()
	account := balances.add(orgID, 0)

	steps := []struct {
		direction enums.MovementDirection
		amount    int64
	}{
		{enums.MovementDirectionCredit, 500},
		{enums.MovementDirectionDebit, 120},
		{enums.MovementDirectionCredit, 75},
	}
	for _, step := range steps {
		if _, err := svc.Record(context.Background(), nil, RecordInput{
			OrganizationID: orgID,
			AccountID:      account.ID,
			Direction:      step.direction,
			Amount:         decimal.NewFromInt(step.amount),
		}); err != nil {
			t.Fatalf("Record error: %v", err)
		}
	}

	result, err := svc.Replay(context.Background(), orgID, account.ID)
	if err != nil {
		t.Fatalf("Replay error: %v", err)
	}
	if !result.Consistent {
		t.Fatalf("expected consistent replay: %+v", result)
	}
	if !result.ComputedBalance.Equal(decimal.NewFromInt(455)) {
		t.Fatalf("expected 455 got %s", result.ComputedBalance)
	}
}

func TestReplayDetectsTamperedRow(t *testing.T) {
	svc, repo, balances := newTestService(t)
	orgID := uuid.New()
	account := balances.add(orgID, 0)

	if _, err := svc.Record(context.Background(), nil, RecordInput{
		OrganizationID: orgID,
		AccountID:      account.ID,
		Direction:      enums.MovementDirectionCredit,
		Amount:         decimal.NewFromInt(100),
	}); err != nil {
		t.Fatalf("Record error: %v", err)
	}

	repo.rows[0].BalanceAfter = decimal.NewFromInt(999)

	result, err := svc.Replay(context.Background(), orgID, account.ID)
	if err != nil {
		t.Fatalf("Replay error: %v", err)
	}
	if result.Consistent {
		t.Fatal("tampered history must not replay as consistent")
	}
}
