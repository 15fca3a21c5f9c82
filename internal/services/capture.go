package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tallybot/internal/dates"
	"tallybot/internal/domain"
	"tallybot/internal/paging"
	"tallybot/internal/validate"
)

// BackToken cancels an in-progress capture from any step.
const BackToken = "back"

// Flow names a capture flow kind.
type Flow string

const (
	FlowPurchase Flow = "purchase"
	FlowSale     Flow = "sale"
)

// Step is the field a capture session is waiting for next.
type Step int

const (
	StepDate Step = iota
	StepName
	StepColor
	StepSize
	StepQuantity
	StepPrice
	StepBatch
	StepSalePrice
	StepMethod
	StepCommitted
	StepCancelled
)

// CaptureSession is the per-conversation draft of an in-progress purchase or
// sale. Nothing touches the ledger until the terminal transition, so
// discarding a session at any step is free of side effects.
type CaptureSession struct {
	Flow Flow
	Step Step

	// purchase draft
	Date     dates.Date
	Name     string
	Color    string
	Size     string
	Quantity int

	// sale draft
	BatchID   string
	SalePrice decimal.Decimal
}

// Done reports whether the session reached a terminal step.
func (s *CaptureSession) Done() bool {
	return s.Step == StepCommitted || s.Step == StepCancelled
}

// Reply is the structured outcome of feeding one input to a capture session.
type Reply struct {
	// Invalid carries the validation failure for a re-prompt of the same
	// step. Empty means the input was accepted.
	Invalid string
	// Next is the step now awaited (meaningful while the flow is open).
	Next Step
	// Cancelled is set when the back token ended the flow.
	Cancelled bool
	// Batch is the committed purchase, set on the purchase flow's terminal
	// transition.
	Batch *domain.Batch
}

// CaptureService drives the multi-step capture of purchases and sales.
type CaptureService struct {
	Ledger *LedgerService
}

func NewCaptureService(ledger *LedgerService) *CaptureService {
	return &CaptureService{Ledger: ledger}
}

// StartPurchase opens a purchase capture waiting for the date field.
func (c *CaptureService) StartPurchase() *CaptureSession {
	return &CaptureSession{Flow: FlowPurchase, Step: StepDate}
}

// BatchChoices is one page of sellable batches for the sale picker.
type BatchChoices struct {
	Page paging.Page[domain.Batch]
}

// StartSale opens a sale capture. The flow starts only if something is
// sellable; otherwise the session is nil and the empty choices signal the
// transport to render an empty-state message. The requested page is clamped.
func (c *CaptureService) StartSale(page int) (*CaptureSession, BatchChoices, error) {
	items, err := c.Ledger.SellableBatches()
	if err != nil {
		return nil, BatchChoices{}, err
	}
	if len(items) == 0 {
		return nil, BatchChoices{}, nil
	}
	page = paging.Clamp(page, len(items), paging.DefaultPageSize)
	p, err := paging.Paginate(items, page, paging.DefaultPageSize)
	if err != nil {
		return nil, BatchChoices{}, err
	}
	return &CaptureSession{Flow: FlowSale, Step: StepBatch}, BatchChoices{Page: p}, nil
}

// SalePage re-pages the sellable list for an open sale capture.
func (c *CaptureService) SalePage(page int) (BatchChoices, error) {
	items, err := c.Ledger.SellableBatches()
	if err != nil {
		return BatchChoices{}, err
	}
	page = paging.Clamp(page, len(items), paging.DefaultPageSize)
	p, err := paging.Paginate(items, page, paging.DefaultPageSize)
	if err != nil {
		return BatchChoices{}, err
	}
	return BatchChoices{Page: p}, nil
}

// Cancel discards the draft from any non-terminal step.
func (c *CaptureService) Cancel(sess *CaptureSession) {
	if sess != nil && !sess.Done() {
		sess.Step = StepCancelled
	}
}

// SubmitText feeds one free-text field to the session. Validation failures
// re-prompt the same step and leave the draft untouched.
func (c *CaptureService) SubmitText(sess *CaptureSession, input string) (Reply, error) {
	if sess == nil || sess.Done() {
		return Reply{}, fmt.Errorf("%w: no capture in progress", domain.ErrInvalidInput)
	}
	if strings.EqualFold(strings.TrimSpace(input), BackToken) {
		sess.Step = StepCancelled
		return Reply{Cancelled: true}, nil
	}

	switch sess.Step {
	case StepDate:
		d, ok := validate.Date(input)
		if !ok {
			return Reply{Invalid: fmt.Sprintf("use %s or %q", dates.Format, validate.TodayToken), Next: sess.Step}, nil
		}
		sess.Date = d
		sess.Step = StepName
	case StepName:
		v, ok := validate.Text(input)
		if !ok {
			return Reply{Invalid: "item name must not be empty", Next: sess.Step}, nil
		}
		sess.Name = v
		sess.Step = StepColor
	case StepColor:
		v, ok := validate.Text(input)
		if !ok {
			return Reply{Invalid: "color must not be empty", Next: sess.Step}, nil
		}
		sess.Color = v
		sess.Step = StepSize
	case StepSize:
		v, ok := validate.Text(input)
		if !ok {
			return Reply{Invalid: "size must not be empty", Next: sess.Step}, nil
		}
		sess.Size = v
		sess.Step = StepQuantity
	case StepQuantity:
		n, ok := validate.PositiveInt(input)
		if !ok {
			return Reply{Invalid: "enter a positive whole number", Next: sess.Step}, nil
		}
		sess.Quantity = n
		sess.Step = StepPrice
	case StepPrice:
		price, ok := validate.PositiveDecimal(input)
		if !ok {
			return Reply{Invalid: "enter a positive price", Next: sess.Step}, nil
		}
		b, err := c.Ledger.CreateBatch(sess.Date, sess.Name, sess.Color, sess.Size, sess.Quantity, price)
		if err != nil {
			return Reply{}, err
		}
		sess.Step = StepCommitted
		return Reply{Next: StepCommitted, Batch: &b}, nil
	case StepSalePrice:
		price, ok := validate.PositiveDecimal(input)
		if !ok {
			return Reply{Invalid: "enter a positive price", Next: sess.Step}, nil
		}
		sess.SalePrice = price
		sess.Step = StepMethod
	default:
		return Reply{}, fmt.Errorf("%w: step awaits a selection, not text", domain.ErrInvalidInput)
	}

	return Reply{Next: sess.Step}, nil
}

// SelectBatch pins the sale target. It is driven by a selection event, never
// free text.
func (c *CaptureService) SelectBatch(sess *CaptureSession, batchID string) (domain.Batch, error) {
	if sess == nil || sess.Flow != FlowSale || sess.Step != StepBatch {
		return domain.Batch{}, fmt.Errorf("%w: no batch selection in progress", domain.ErrInvalidInput)
	}
	b, err := c.Ledger.Ledger.GetBatch(batchID)
	if err != nil {
		return domain.Batch{}, err
	}
	sess.BatchID = b.ID
	sess.Step = StepSalePrice
	return b, nil
}

// SelectMethod commits the sale. A batch emptied between selection and commit
// surfaces as ErrExhausted and ends the flow without retry.
func (c *CaptureService) SelectMethod(sess *CaptureSession, method domain.SaleMethod) (SaleReceipt, error) {
	if sess == nil || sess.Flow != FlowSale || sess.Step != StepMethod {
		return SaleReceipt{}, fmt.Errorf("%w: no method selection in progress", domain.ErrInvalidInput)
	}
	receipt, err := c.Ledger.RecordSale(sess.BatchID, sess.SalePrice, method)
	if err != nil {
		sess.Step = StepCancelled
		return SaleReceipt{}, err
	}
	sess.Step = StepCommitted
	return receipt, nil
}
