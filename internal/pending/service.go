package pending

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/facturex/backend/internal/transactions"
	"github.com/facturex/backend/pkg/db"
	"github.com/facturex/backend/pkg/db/models"
	"github.com/facturex/backend/pkg/enums"
	pkgerrors "github.com/facturex/backend/pkg/errors"
	"github.com/facturex/backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type accountResolver interface {
	GetByName(ctx context.Context, orgID uuid.UUID, name string) (*models.Account, error)
}

type transactionCreator interface {
	Create(ctx context.Context, input transactions.CreateInput) (*models.Transaction, error)
}

// Service is the approval queue between the chat agent and the ledger. Each
// channel holds at most one live proposal; confirming promotes it into a real
// transaction, anything else lets it lapse.
type Service interface {
	Propose(ctx context.Context, input ProposeInput) (*models.PendingTransaction, error)
	// Confirm promotes the channel's live proposal into a settled transaction.
	// A proposal past its TTL is expired instead and reported as such.
	Confirm(ctx context.Context, orgID uuid.UUID, channelID string) (*models.Transaction, error)
	// Cancel marks the live proposal cancelled. Cancelling a channel with no
	// live proposal is a no-op.
	Cancel(ctx context.Context, orgID uuid.UUID, channelID string) error
	GetLive(ctx context.Context, orgID uuid.UUID, channelID string) (*models.PendingTransaction, error)
}

// ProposeInput captures a parsed intent awaiting confirmation.
type ProposeInput struct {
	OrganizationID uuid.UUID
	ChannelID      string
	Kind           enums.TransactionKind
	Amount         decimal.Decimal
	Currency       enums.Currency
	Motif          string
	AccountName    string
	Category       *string
}

type service struct {
	tx           txRunner
	repo         Repository
	transactions transactionCreator
	accounts     accountResolver
	ttl          time.Duration
	metrics      *metrics.LedgerMetrics
}

// NewService wires the pending queue with its collaborators.
func NewService(tx txRunner, repo Repository, creator transactionCreator, accounts accountResolver, ttl time.Duration, ledgerMetrics *metrics.LedgerMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("pending repository required")
	}
	if creator == nil {
		return nil, fmt.Errorf("transactions service required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account resolver required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("pending ttl must be positive")
	}
	return &service{
		tx:           tx,
		repo:         repo,
		transactions: creator,
		accounts:     accounts,
		ttl:          ttl,
		metrics:      ledgerMetrics,
	}, nil
}

func (s *service) Propose(ctx context.Context, input ProposeInput) (*models.PendingTransaction, error) {
	if err := validatePropose(input); err != nil {
		return nil, err
	}

	entry := &models.PendingTransaction{
		OrganizationID: input.OrganizationID,
		ChannelID:      input.ChannelID,
		Kind:           input.Kind,
		Amount:         input.Amount,
		Currency:       input.Currency,
		Motif:          input.Motif,
		AccountName:    input.AccountName,
		Category:       input.Category,
		Status:         enums.PendingStatusPending,
		ExpiresAt:      time.Now().Add(s.ttl),
	}

	// A new proposal supersedes whatever the channel was waiting on. Both
	// writes share one transaction so the partial unique index never sees two
	// live rows, even under concurrent delivery of the same message.
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.ExpireLive(ctx, input.OrganizationID, input.ChannelID); err != nil {
			return err
		}
		return repo.Create(ctx, entry)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_pending_one_live_per_channel") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "channel already has a live proposal")
		}
		return nil, err
	}
	return entry, nil
}

func validatePropose(input ProposeInput) error {
	if input.OrganizationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	if input.ChannelID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "channel id is required")
	}
	if input.Kind != enums.TransactionKindRevenue && input.Kind != enums.TransactionKindExpense {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("kind %q cannot be proposed from chat", input.Kind))
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.Currency))
	}
	if input.Motif == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "motif is required")
	}
	if input.AccountName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "account name is required")
	}
	return nil
}

func (s *service) Confirm(ctx context.Context, orgID uuid.UUID, channelID string) (*models.Transaction, error) {
	entry, err := s.liveEntry(ctx, orgID, channelID)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByName(ctx, orgID, entry.AccountName)
	if err != nil {
		return nil, err
	}

	input := transactions.CreateInput{
		OrganizationID: orgID,
		Kind:           entry.Kind,
		Amount:         entry.Amount,
		Currency:       entry.Currency,
		Motif:          entry.Motif,
		Category:       entry.Category,
	}
	switch entry.Kind {
	case enums.TransactionKindRevenue:
		input.DestAccountID = &account.ID
	case enums.TransactionKindExpense:
		input.SourceAccountID = &account.ID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("kind %q cannot be confirmed from chat", entry.Kind))
	}

	// Claim the proposal before promoting it. A failure after this point
	// loses the proposal rather than leaving it live, where a retried
	// confirmation would create the transaction a second time.
	claimed, err := s.repo.Claim(ctx, orgID, entry.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no live proposal for channel")
	}

	transaction, err := s.transactions.Create(ctx, input)
	if err != nil {
		// The claim already consumed the proposal. Flip it to cancelled so a
		// confirmed row never stands without its transaction.
		_ = s.repo.MarkStatus(ctx, orgID, entry.ID, enums.PendingStatusCancelled)
		return nil, err
	}
	return transaction, nil
}

func (s *service) Cancel(ctx context.Context, orgID uuid.UUID, channelID string) error {
	entry, err := s.repo.FindLiveByChannel(ctx, orgID, channelID)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}
	if entry.Lapsed(time.Now()) {
		return s.expire(ctx, orgID, entry.ID)
	}
	return s.repo.MarkStatus(ctx, orgID, entry.ID, enums.PendingStatusCancelled)
}

func (s *service) GetLive(ctx context.Context, orgID uuid.UUID, channelID string) (*models.PendingTransaction, error) {
	return s.liveEntry(ctx, orgID, channelID)
}

// liveEntry loads the channel's pending row and applies lazy expiry: a row
// past its TTL is flipped to expired on read, then surfaced as Expired.
func (s *service) liveEntry(ctx context.Context, orgID uuid.UUID, channelID string) (*models.PendingTransaction, error) {
	entry, err := s.repo.FindLiveByChannel(ctx, orgID, channelID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no live proposal for channel")
	}
	if entry.Lapsed(time.Now()) {
		if err := s.expire(ctx, orgID, entry.ID); err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeExpired, "proposal expired before confirmation")
	}
	return entry, nil
}

func (s *service) expire(ctx context.Context, orgID, id uuid.UUID) error {
	if err := s.repo.MarkStatus(ctx, orgID, id, enums.PendingStatusExpired); err != nil {
		return err
	}
	s.metrics.IncPendingExpired()
	return nil
}
