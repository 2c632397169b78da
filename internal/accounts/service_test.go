package accounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/facturex/backend/pkg/db/models"
	"github.com/facturex/backend/pkg/enums"
	pkgerrors "github.com/facturex/backend/pkg/errors"
)

type fakeRepository struct {
	accounts map[uuid.UUID]*models.Account
	swapOK   bool
	swaps    int
	created  []*models.Account
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{accounts: map[uuid.UUID]*models.Account{}, swapOK: true}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(_ context.Context, account *models.Account) error {
	account.ID = uuid.New()
	f.accounts[account.ID] = account
	f.created = append(f.created, account)
	return nil
}

func (f *fakeRepository) FindByID(_ context.Context, orgID, id uuid.UUID) (*models.Account, error) {
	account, ok := f.accounts[id]
	if !ok || account.OrganizationID != orgID {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (f *fakeRepository) FindByName(_ context.Context, orgID uuid.UUID, name string) (*models.Account, error) {
	for _, account := range f.accounts {
		if account.OrganizationID == orgID && account.Name == name {
			copied := *account
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) List(_ context.Context, orgID uuid.UUID, includeInactive bool) ([]models.Account, error) {
	var out []models.Account
	for _, account := range f.accounts {
		if account.OrganizationID != orgID {
			continue
		}
		if !includeInactive && !account.Active {
			continue
		}
		out = append(out, *account)
	}
	return out, nil
}

func (f *fakeRepository) CompareAndSwapBalance(_ context.Context, orgID, id uuid.UUID, balance decimal.Decimal, expectedVersion int64) (bool, error) {
	f.swaps++
	if !f.swapOK {
		return false, nil
	}
	account := f.accounts[id]
	if account == nil || account.OrganizationID != orgID || account.Version != expectedVersion {
		return false, nil
	}
	account.Balance = balance
	account.Version++
	return true, nil
}

func (f *fakeRepository) SetActive(_ context.Context, orgID, id uuid.UUID, active bool) error {
	if account := f.accounts[id]; account != nil && account.OrganizationID == orgID {
		account.Active = active
	}
	return nil
}

func seedAccount(repo *fakeRepository, orgID uuid.UUID, balance int64) *models.Account {
	account := &models.Account{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           "Cash Bureau",
		Type:           enums.AccountTypeCash,
		Currency:       enums.CurrencyUSD,
		Balance:        decimal.NewFromInt(balance),
		Active:         true,
	}
	repo.accounts[account.ID] = account
	return account
}

func TestCreateValidation(t *testing.T) {
	svc, err := NewService(newFakeRepository())
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"missing org", CreateInput{Name: "Caisse", Type: enums.AccountTypeCash, Currency: enums.CurrencyUSD}},
		{"missing name", CreateInput{OrganizationID: uuid.New(), Type: enums.AccountTypeCash, Currency: enums.CurrencyUSD}},
		{"bad type", CreateInput{OrganizationID: uuid.New(), Name: "Caisse", Type: "crypto", Currency: enums.CurrencyUSD}},
		{"bad currency", CreateInput{OrganizationID: uuid.New(), Name: "Caisse", Type: enums.AccountTypeCash, Currency: "EUR"}},
		{"negative opening", CreateInput{OrganizationID: uuid.New(), Name: "Caisse", Type: enums.AccountTypeCash, Currency: enums.CurrencyUSD, OpeningBalance: decimal.NewFromInt(-5)}},
	}
	for _, tt := range tests {
		if _, err := svc.Create(context.Background(), tt.input); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", tt.name, err)
		}
	}
}

func TestCreateOpensActiveAccount(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := NewService(repo)

	account, err := svc.Create(context.Background(), CreateInput{
		OrganizationID: uuid.New(),
		Name:           "Mpesa Principal",
		Type:           enums.AccountTypeMobileMoney,
		Currency:       enums.CurrencyCDF,
		OpeningBalance: decimal.NewFromInt(150000),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if !account.Active {
		t.Fatal("new accounts must start active")
	}
	if !account.Balance.Equal(decimal.NewFromInt(150000)) {
		t.Fatalf("opening balance lost: %s", account.Balance)
	}
}

func TestGetBalanceInactiveAccount(t *testing.T) {
	repo := newFakeRepository()
	orgID := uuid.New()
	account := seedAccount(repo, orgID, 100)
	account.Active = false

	svc, _ := NewService(repo)
	_, err := svc.GetBalance(context.Background(), orgID, account.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for inactive account, got %v", err)
	}
}

func TestApplyDeltaUpdatesBalance(t *testing.T) {
	repo := newFakeRepository()
	orgID := uuid.New()
	account := seedAccount(repo, orgID, 1000)

	svc, _ := NewService(repo)
	change, err := svc.ApplyDelta(context.Background(), nil, orgID, account.ID, decimal.NewFromInt(-250))
	if err != nil {
		t.Fatalf("ApplyDelta error: %v", err)
	}
	if !change.Before.Equal(decimal.NewFromInt(1000)) || !change.After.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("unexpected change %+v", change)
	}
	if !repo.accounts[account.ID].Balance.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("balance not persisted: %s", repo.accounts[account.ID].Balance)
	}
}

func TestApplyDeltaRejectsOverdraft(t *testing.T) {
	repo := newFakeRepository()
	orgID := uuid.New()
	account := seedAccount(repo, orgID, 100)

	svc, _ := NewService(repo)
	_, err := svc.ApplyDelta(context.Background(), nil, orgID, account.ID, decimal.NewFromInt(-101))
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.swaps != 0 {
		t.Fatal("no balance write should happen on a rejected overdraft")
	}
}

func TestApplyDeltaAllowsNegativeWhenPermitted(t *testing.T) {
	repo := newFakeRepository()
	orgID := uuid.New()
	account := seedAccount(repo, orgID, 100)
	account.AllowNegative = true

	svc, _ := NewService(repo)
	change, err := svc.ApplyDelta(context.Background(), nil, orgID, account.ID, decimal.NewFromInt(-150))
	if err != nil {
		t.Fatalf("ApplyDelta error: %v", err)
	}
	if !change.After.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("expected -50 got %s", change.After)
	}
}

func TestApplyDeltaConflict(t *testing.T) {
	repo := newFakeRepository()
	repo.swapOK = false
	orgID := uuid.New()
	account := seedAccount(repo, orgID, 100)

	svc, _ := NewService(repo)
	_, err := svc.ApplyDelta(context.Background(), nil, orgID, account.ID, decimal.NewFromInt(10))
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}
