package rates

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturex/backend/pkg/config"
	"github.com/facturex/backend/pkg/db/models"
	"github.com/facturex/backend/pkg/enums"
	pkgerrors "github.com/facturex/backend/pkg/errors"
)

// Snapshot freezes the exchange rates and fee percents in force at one
// instant. Money-moving code copies these onto the rows it writes so a later
// rate change never rewrites history.
type Snapshot struct {
	USDToCDF           decimal.Decimal
	USDToCNY           decimal.Decimal
	TransferFeePercent decimal.Decimal
	OrderFeePercent    decimal.Decimal
	PartnerFeePercent  decimal.Decimal
}

// Convert translates an amount between the supported currencies through USD.
func (s Snapshot) Convert(amount decimal.Decimal, from, to enums.Currency) decimal.Decimal {
	if from == to {
		return amount
	}
	usd := amount
	switch from {
	case enums.CurrencyCDF:
		usd = amount.Div(s.USDToCDF)
	case enums.CurrencyCNY:
		usd = amount.Div(s.USDToCNY)
	}
	switch to {
	case enums.CurrencyCDF:
		return usd.Mul(s.USDToCDF).Round(2)
	case enums.CurrencyCNY:
		return usd.Mul(s.USDToCNY).Round(2)
	default:
		return usd.Round(2)
	}
}

// TransferFee returns the transfer commission for the given amount.
func (s Snapshot) TransferFee(amount decimal.Decimal) decimal.Decimal {
	return percentOf(amount, s.TransferFeePercent)
}

// OrderFee returns the order commission for the given amount.
func (s Snapshot) OrderFee(amount decimal.Decimal) decimal.Decimal {
	return percentOf(amount, s.OrderFeePercent)
}

// PartnerFee returns the partner commission for the given amount.
func (s Snapshot) PartnerFee(amount decimal.Decimal) decimal.Decimal {
	return percentOf(amount, s.PartnerFeePercent)
}

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
}

// Service resolves the settings in force for an organization.
type Service interface {
	Snapshot(ctx context.Context, orgID uuid.UUID) (Snapshot, error)
	SetRate(ctx context.Context, orgID uuid.UUID, key string, value decimal.Decimal) error
	SetFee(ctx context.Context, orgID uuid.UUID, key string, value decimal.Decimal) error
}

type service struct {
	repo     Repository
	defaults Snapshot
}

// NewService wires a rates service with the provided repository and config
// defaults.
func NewService(repo Repository, cfg config.LedgerConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	defaults, err := defaultsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &service{repo: repo, defaults: defaults}, nil
}

func defaultsFromConfig(cfg config.LedgerConfig) (Snapshot, error) {
	snap := Snapshot{}
	parsed := []struct {
		raw  string
		dest *decimal.Decimal
		name string
	}{
		{cfg.RateUSDToCDF, &snap.USDToCDF, "usd/cdf rate"},
		{cfg.RateUSDToCNY, &snap.USDToCNY, "usd/cny rate"},
		{cfg.TransferFeePercent, &snap.TransferFeePercent, "transfer fee percent"},
		{cfg.OrderFeePercent, &snap.OrderFeePercent, "order fee percent"},
		{cfg.PartnerFeePercent, &snap.PartnerFeePercent, "partner fee percent"},
	}
	for _, p := range parsed {
		value, err := decimal.NewFromString(p.raw)
		if err != nil {
			return Snapshot{}, fmt.Errorf("invalid %s %q: %w", p.name, p.raw, err)
		}
		*p.dest = value
	}
	return snap, nil
}

func (s *service) Snapshot(ctx context.Context, orgID uuid.UUID) (Snapshot, error) {
	snap := s.defaults
	overrides := []struct {
		category string
		key      string
		dest     *decimal.Decimal
	}{
		{models.SettingCategoryRates, models.SettingKeyUSDToCDF, &snap.USDToCDF},
		{models.SettingCategoryRates, models.SettingKeyUSDToCNY, &snap.USDToCNY},
		{models.SettingCategoryFees, models.SettingKeyTransferFee, &snap.TransferFeePercent},
		{models.SettingCategoryFees, models.SettingKeyOrderFee, &snap.OrderFeePercent},
		{models.SettingCategoryFees, models.SettingKeyPartnerFee, &snap.PartnerFeePercent},
	}
	for _, o := range overrides {
		setting, err := s.repo.Find(ctx, orgID, o.category, o.key)
		if err != nil {
			return Snapshot{}, err
		}
		if setting == nil {
			continue
		}
		value, err := decimal.NewFromString(setting.Value)
		if err != nil {
			return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err,
				fmt.Sprintf("corrupt setting %s/%s", o.category, o.key))
		}
		*o.dest = value
	}
	return snap, nil
}

func (s *service) SetRate(ctx context.Context, orgID uuid.UUID, key string, value decimal.Decimal) error {
	return s.set(ctx, orgID, models.SettingCategoryRates, key, value)
}

func (s *service) SetFee(ctx context.Context, orgID uuid.UUID, key string, value decimal.Decimal) error {
	return s.set(ctx, orgID, models.SettingCategoryFees, key, value)
}

func (s *service) set(ctx context.Context, orgID uuid.UUID, category, key string, value decimal.Decimal) error {
	if orgID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	if !value.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "value must be positive")
	}
	if !knownSettingKey(category, key) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown setting %s/%s", category, key))
	}
	return s.repo.Upsert(ctx, &models.Setting{
		OrganizationID: orgID,
		Category:       category,
		Key:            key,
		Value:          value.String(),
	})
}

func knownSettingKey(category, key string) bool {
	switch category {
	case models.SettingCategoryRates:
		return key == models.SettingKeyUSDToCDF || key == models.SettingKeyUSDToCNY
	case models.SettingCategoryFees:
		return key == models.SettingKeyTransferFee || key == models.SettingKeyOrderFee ||
			key == models.SettingKeyPartnerFee
	default:
		return false
	}
}
