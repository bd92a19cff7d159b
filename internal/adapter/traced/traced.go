// Package traced decorates use case collaborators with tracing spans.
// Each decorator satisfies the same interface as the value it wraps and
// returns that value's results and errors unchanged.
package traced

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/iho/moneytransfer/internal/domain"
	"github.com/iho/moneytransfer/internal/infrastructure/tracing"
	"github.com/iho/moneytransfer/internal/usecase"
)

// InstrumentationName identifies spans created by this package.
const InstrumentationName = "github.com/iho/moneytransfer"

// Span attribute keys.
const (
	AttrAccountID       = attribute.Key("account.id")
	AttrSourceAccountID = attribute.Key("transfer.source_account_id")
	AttrTargetAccountID = attribute.Key("transfer.target_account_id")
	AttrAmount          = attribute.Key("transfer.amount")
	AttrEventID         = attribute.Key("event.id")
	AttrEventType       = attribute.Key("event.type")
)

// MoneyTransferService traces a usecase.MoneyTransferService.
type MoneyTransferService struct {
	next usecase.MoneyTransferService
	inst *tracing.Instrumentor
}

// NewMoneyTransferService wraps next.
func NewMoneyTransferService(next usecase.MoneyTransferService, tp trace.TracerProvider) *MoneyTransferService {
	return &MoneyTransferService{
		next: next,
		inst: tracing.NewInstrumentor(tp.Tracer(InstrumentationName), "MoneyTransferService"),
	}
}

// DepositFunds traces next.DepositFunds.
func (s *MoneyTransferService) DepositFunds(ctx context.Context, accountID string, amount decimal.Decimal) error {
	return tracing.Exec(ctx, s.inst, "DepositFunds", func(ctx context.Context) error {
		return s.next.DepositFunds(ctx, accountID, amount)
	}, AttrAccountID.String(accountID), AttrAmount.String(amount.String()))
}

// TransferFunds traces next.TransferFunds.
func (s *MoneyTransferService) TransferFunds(ctx context.Context, sourceID, targetID string, amount decimal.Decimal) (*domain.TransferRecord, error) {
	return tracing.Call(ctx, s.inst, "TransferFunds", func(ctx context.Context) (*domain.TransferRecord, error) {
		return s.next.TransferFunds(ctx, sourceID, targetID, amount)
	}, AttrSourceAccountID.String(sourceID), AttrTargetAccountID.String(targetID), AttrAmount.String(amount.String()))
}

// CreditProvider traces a usecase.CreditProvider.
type CreditProvider struct {
	next usecase.CreditProvider
	inst *tracing.Instrumentor
}

// NewCreditProvider wraps next.
func NewCreditProvider(next usecase.CreditProvider, tp trace.TracerProvider) *CreditProvider {
	return &CreditProvider{
		next: next,
		inst: tracing.NewInstrumentor(tp.Tracer(InstrumentationName), "CreditProvider"),
	}
}

// CheckCredit traces next.CheckCredit.
func (c *CreditProvider) CheckCredit(ctx context.Context, accountID string) (*domain.CreditAssessment, error) {
	return tracing.Call(ctx, c.inst, "CheckCredit", func(ctx context.Context) (*domain.CreditAssessment, error) {
		return c.next.CheckCredit(ctx, accountID)
	}, AttrAccountID.String(accountID))
}

// EventPublisher traces a usecase.EventPublisher. Publish failures that the
// transfer service absorbs still show up here as failed spans.
type EventPublisher struct {
	next usecase.EventPublisher
	inst *tracing.Instrumentor
}

// NewEventPublisher wraps next.
func NewEventPublisher(next usecase.EventPublisher, tp trace.TracerProvider) *EventPublisher {
	return &EventPublisher{
		next: next,
		inst: tracing.NewInstrumentor(tp.Tracer(InstrumentationName), "EventPublisher"),
	}
}

// Publish traces next.Publish.
func (p *EventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	return tracing.Exec(ctx, p.inst, "Publish", func(ctx context.Context) error {
		return p.next.Publish(ctx, event)
	}, AttrEventID.String(event.ID), AttrEventType.String(string(event.Type)))
}

var (
	_ usecase.MoneyTransferService = (*MoneyTransferService)(nil)
	_ usecase.CreditProvider       = (*CreditProvider)(nil)
	_ usecase.EventPublisher       = (*EventPublisher)(nil)
)
