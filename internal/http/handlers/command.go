package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"tallybot/internal/domain"
	"tallybot/internal/services"
)

// CommandKind tags the conversational command variants.
type CommandKind string

const (
	CmdAuthorize     CommandKind = "authorize"
	CmdStartPurchase CommandKind = "start_purchase"
	CmdSubmitField   CommandKind = "submit_field"
	CmdStartSale     CommandKind = "start_sale"
	CmdSalePage      CommandKind = "sale_page"
	CmdSelectBatch   CommandKind = "select_batch"
	CmdSelectMethod  CommandKind = "select_method"
	CmdCancel        CommandKind = "cancel"
	CmdPeriodSales   CommandKind = "period_sales"
	CmdItemSales     CommandKind = "item_sales"
	CmdListItems     CommandKind = "list_items"
	CmdInventory     CommandKind = "inventory"
	CmdLiquidity     CommandKind = "liquidity"
	CmdStatistics    CommandKind = "statistics"
	CmdBrowseDelete  CommandKind = "browse_delete"
	CmdDeleteRecord  CommandKind = "delete_record"
)

// Record targets for browse/delete.
const (
	TargetPurchase = "purchase"
	TargetSale     = "sale"
)

// Command is one decoded conversational command. Only the fields relevant to
// the Kind are set; DecodeCommand rejects anything malformed so downstream
// code never re-parses encoded strings.
type Command struct {
	Kind     CommandKind
	Text     string
	BatchID  string
	RecordID string
	Target   string
	Method   domain.SaleMethod
	Page     int
	Period   services.PeriodSpec
	Item     string
	Password string
	Name     string
}

type commandWire struct {
	Kind     CommandKind `json:"kind"`
	Text     string      `json:"text"`
	BatchID  string      `json:"batch_id"`
	RecordID string      `json:"record_id"`
	Target   string      `json:"target"`
	Method   string      `json:"method"`
	Page     int         `json:"page"`
	Period   string      `json:"period"`
	Month    int         `json:"month"`
	Year     int         `json:"year"`
	Item     string      `json:"item"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
}

// DecodeCommand parses and validates one command payload.
func DecodeCommand(body []byte) (Command, error) {
	var w commandWire
	if err := json.Unmarshal(body, &w); err != nil {
		return Command{}, fmt.Errorf("%w: bad command payload: %v", domain.ErrInvalidInput, err)
	}

	cmd := Command{Kind: w.Kind, Page: w.Page}
	switch w.Kind {
	case CmdAuthorize:
		if w.Password == "" {
			return Command{}, fmt.Errorf("%w: authorize needs a password", domain.ErrInvalidInput)
		}
		cmd.Password, cmd.Name = w.Password, w.Name
	case CmdStartPurchase, CmdCancel, CmdInventory, CmdLiquidity, CmdStatistics, CmdListItems:
		// no payload
	case CmdStartSale, CmdSalePage:
		if w.Page < 0 {
			return Command{}, fmt.Errorf("%w: negative page", domain.ErrInvalidInput)
		}
	case CmdSubmitField:
		if w.Text == "" {
			return Command{}, fmt.Errorf("%w: submit_field needs text", domain.ErrInvalidInput)
		}
		cmd.Text = w.Text
	case CmdSelectBatch:
		if w.BatchID == "" {
			return Command{}, fmt.Errorf("%w: select_batch needs batch_id", domain.ErrInvalidInput)
		}
		cmd.BatchID = w.BatchID
	case CmdSelectMethod:
		m := domain.SaleMethod(w.Method)
		if !m.Valid() {
			return Command{}, fmt.Errorf("%w: unknown method %q", domain.ErrInvalidInput, w.Method)
		}
		cmd.Method = m
	case CmdPeriodSales, CmdItemSales:
		spec, err := decodePeriod(w)
		if err != nil {
			return Command{}, err
		}
		cmd.Period = spec
		if w.Kind == CmdItemSales {
			if w.Item == "" {
				return Command{}, fmt.Errorf("%w: item_sales needs item", domain.ErrInvalidInput)
			}
			cmd.Item = w.Item
		}
	case CmdBrowseDelete:
		if w.Target != TargetPurchase && w.Target != TargetSale {
			return Command{}, fmt.Errorf("%w: unknown target %q", domain.ErrInvalidInput, w.Target)
		}
		cmd.Target = w.Target
	case CmdDeleteRecord:
		if w.Target != TargetPurchase && w.Target != TargetSale {
			return Command{}, fmt.Errorf("%w: unknown target %q", domain.ErrInvalidInput, w.Target)
		}
		if w.RecordID == "" {
			return Command{}, fmt.Errorf("%w: delete_record needs record_id", domain.ErrInvalidInput)
		}
		cmd.Target, cmd.RecordID = w.Target, w.RecordID
	default:
		return Command{}, fmt.Errorf("%w: unknown command %q", domain.ErrInvalidInput, w.Kind)
	}
	return cmd, nil
}

func decodePeriod(w commandWire) (services.PeriodSpec, error) {
	if w.Period == string(services.PeriodMonthYear) || (w.Period == "" && w.Month != 0) {
		if w.Month < 1 || w.Month > 12 || w.Year <= 0 {
			return services.PeriodSpec{}, fmt.Errorf("%w: bad month/year %d/%d", domain.ErrInvalidInput, w.Month, w.Year)
		}
		return services.PeriodSpec{Kind: services.PeriodMonthYear, Month: time.Month(w.Month), Year: w.Year}, nil
	}
	switch k := services.PeriodKind(w.Period); k {
	case services.PeriodToday, services.PeriodLast7, services.PeriodLast14,
		services.PeriodLast30, services.PeriodCurrentMonth, services.PeriodAllTime:
		return services.PeriodSpec{Kind: k}, nil
	default:
		return services.PeriodSpec{}, fmt.Errorf("%w: unknown period %q", domain.ErrInvalidInput, w.Period)
	}
}
