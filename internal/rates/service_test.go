package rates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/facturex/backend/pkg/config"
	"github.com/facturex/backend/pkg/db/models"
	pkgerrors "github.com/facturex/backend/pkg/errors"
)

type fakeRepository struct {
	settings map[string]string
	upserted []*models.Setting
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{settings: map[string]string{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Find(_ context.Context, orgID uuid.UUID, category, key string) (*models.Setting, error) {
	if v, ok := f.settings[category+"/"+key]; ok {
		return &models.Setting{OrganizationID: orgID, Category: category, Key: key, Value: v}, nil
	}
	return nil, nil
}

func (f *fakeRepository) Upsert(_ context.Context, setting *models.Setting) error {
	f.settings[setting.Category+"/"+setting.Key] = setting.Value
	f.upserted = append(f.upserted, setting)
	return nil
}

func (f *fakeRepository) ListByCategory(_ context.Context, _ uuid.UUID, _ string) ([]models.Setting, error) {
	return nil, nil
}

func testConfig() config.LedgerConfig {
	return config.LedgerConfig{
		RateUSDToCDF:       "2200",
		RateUSDToCNY:       "6.95",
		TransferFeePercent: "5",
		OrderFeePercent:    "15",
		PartnerFeePercent:  "3",
	}
}

func TestSnapshotDefaults(t *testing.T) {
	svc, err := NewService(newFakeRepository(), testConfig())
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	snap, err := svc.Snapshot(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if !snap.USDToCDF.Equal(decimal.NewFromInt(2200)) {
		t.Fatalf("unexpected usd/cdf rate %s", snap.USDToCDF)
	}
	if !snap.TransferFeePercent.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected transfer fee %s", snap.TransferFeePercent)
	}
}

func TestSnapshotHonorsOverrides(t *testing.T) {
	repo := newFakeRepository()
	repo.settings["rates/usd_to_cdf"] = "2350"
	repo.settings["fees/order_fee_percent"] = "12.5"

	svc, err := NewService(repo, testConfig())
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	snap, err := svc.Snapshot(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if !snap.USDToCDF.Equal(decimal.NewFromInt(2350)) {
		t.Fatalf("override not applied: %s", snap.USDToCDF)
	}
	if !snap.OrderFeePercent.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("fee override not applied: %s", snap.OrderFeePercent)
	}
	if !snap.USDToCNY.Equal(decimal.RequireFromString("6.95")) {
		t.Fatalf("default should survive untouched: %s", snap.USDToCNY)
	}
}

func TestConvertRoundTrips(t *testing.T) {
	snap := Snapshot{
		USDToCDF: decimal.NewFromInt(2200),
		USDToCNY: decimal.RequireFromString("6.95"),
	}

	cdf := snap.Convert(decimal.NewFromInt(100), "USD", "CDF")
	if !cdf.Equal(decimal.NewFromInt(220000)) {
		t.Fatalf("expected 220000 CDF got %s", cdf)
	}

	usd := snap.Convert(decimal.NewFromInt(220000), "CDF", "USD")
	if !usd.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected 100 USD got %s", usd)
	}

	cny := snap.Convert(decimal.NewFromInt(100), "USD", "CNY")
	if !cny.Equal(decimal.NewFromInt(695)) {
		t.Fatalf("expected 695 CNY got %s", cny)
	}

	same := snap.Convert(decimal.NewFromInt(42), "USD", "USD")
	if !same.Equal(decimal.NewFromInt(42)) {
		t.Fatalf("same-currency conversion must be identity, got %s", same)
	}
}

func TestFees(t *testing.T) {
	snap := Snapshot{
		TransferFeePercent: decimal.NewFromInt(5),
		OrderFeePercent:    decimal.NewFromInt(15),
		PartnerFeePercent:  decimal.NewFromInt(3),
	}
	amount := decimal.NewFromInt(1000)

	if got := snap.TransferFee(amount); !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("transfer fee: expected 50 got %s", got)
	}
	if got := snap.OrderFee(amount); !got.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("order fee: expected 150 got %s", got)
	}
	if got := snap.PartnerFee(amount); !got.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("partner fee: expected 30 got %s", got)
	}
}

func TestSetRateValidation(t *testing.T) {
	repo := newFakeRepository()
	svc, err := NewService(repo, testConfig())
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	err = svc.SetRate(context.Background(), uuid.New(), "usd_to_btc", decimal.NewFromInt(1))
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unknown key, got %v", err)
	}

	err = svc.SetRate(context.Background(), uuid.New(), models.SettingKeyUSDToCDF, decimal.Zero)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for zero value, got %v", err)
	}

	if err := svc.SetRate(context.Background(), uuid.New(), models.SettingKeyUSDToCDF, decimal.NewFromInt(2400)); err != nil {
		t.Fatalf("SetRate error: %v", err)
	}
	if len(repo.upserted) != 1 || repo.upserted[0].Value != "2400" {
		t.Fatalf("rate not persisted: %+v", repo.upserted)
	}
}
