package trade

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradecomply/backend/internal/domain/identity"
	"github.com/tradecomply/backend/internal/domain/shared"
)

// RecordTypeOrder is the record-type tag for orders
const RecordTypeOrder = "Order"

const dateLayout = "2006-01-02"

// Order is a customer purchase order tracked for trade compliance.
type Order struct {
	ID                    int64
	OrderNumber           string
	CustomerOrderNumber   string
	ModeOfDelivery        string
	TermsOfSale           string
	ShipWindowStart       *time.Time
	ShipWindowEnd         *time.Time
	FirstExpectedDelivery *time.Time
	DeclaredValue         decimal.Decimal
	Currency              string
	ClosedAt              *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Version               int
}

// NewOrder creates a new open order
func NewOrder(orderNumber string) (*Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	now := time.Now()
	return &Order{
		OrderNumber:   orderNumber,
		DeclaredValue: decimal.Zero,
		Currency:      "USD",
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}, nil
}

// RecordType implements the record contract used by bulk actions
func (o *Order) RecordType() string { return RecordTypeOrder }

// RecordID implements the record contract used by bulk actions
func (o *Order) RecordID() string { return strconv.FormatInt(o.ID, 10) }

// Ref returns a polymorphic reference to the order
func (o *Order) Ref() shared.RecordRef {
	return shared.NewRecordRef(RecordTypeOrder, o.RecordID())
}

// IsClosed returns true if the order no longer accepts edits
func (o *Order) IsClosed() bool {
	return o.ClosedAt != nil
}

// Close closes the order
func (o *Order) Close(at time.Time) {
	o.ClosedAt = &at
	o.touch()
}

// CanView reports whether the user may see the order
func (o *Order) CanView(u *identity.User) bool {
	return u.HasPermission(identity.PermissionOrderView) || u.HasPermission(identity.PermissionOrderEdit)
}

// CanEdit reports whether the user may change the order
func (o *Order) CanEdit(u *identity.User) bool {
	return !o.IsClosed() && u.HasPermission(identity.PermissionOrderEdit)
}

// CanComment reports whether the user may attach a comment to the order
func (o *Order) CanComment(u *identity.User) bool {
	return o.CanView(u) && u.HasPermission(identity.PermissionComment)
}

// UpdatableFieldsFor returns, in registry order, the updatable fields that are present
// in values and that the user holds the field permission for.
func (o *Order) UpdatableFieldsFor(u *identity.User, values map[string]any) []string {
	fields := make([]string, 0, len(values))
	for _, f := range orderFields {
		if _, ok := values[f.name]; !ok {
			continue
		}
		if !u.HasPermission(identity.OrderFieldPermission(f.name)) {
			continue
		}
		fields = append(fields, f.name)
	}
	return fields
}

// ApplyUpdates sets the named fields from values. Either every field applies or
// the order is left untouched.
func (o *Order) ApplyUpdates(values map[string]any, fields []string) error {
	updated := *o
	for _, name := range fields {
		f, ok := orderFieldIndex[name]
		if !ok {
			return shared.NewDomainError("UNKNOWN_FIELD", fmt.Sprintf("Order field %q cannot be updated", name))
		}
		if err := f.apply(&updated, values[name]); err != nil {
			return shared.NewDomainError("INVALID_FIELD_VALUE", fmt.Sprintf("Invalid value for %s: %s", name, err.Error()))
		}
	}
	if updated.ShipWindowStart != nil && updated.ShipWindowEnd != nil &&
		updated.ShipWindowEnd.Before(*updated.ShipWindowStart) {
		return shared.NewDomainError("INVALID_SHIP_WINDOW", "Ship window end cannot be before ship window start")
	}
	*o = updated
	o.touch()
	return nil
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now()
	o.Version++
}

// OrderUpdatableFields lists the order fields a bulk update may set, sorted
func OrderUpdatableFields() []string {
	names := make([]string, 0, len(orderFields))
	for _, f := range orderFields {
		names = append(names, f.name)
	}
	sort.Strings(names)
	return names
}

type orderField struct {
	name  string
	apply func(o *Order, raw any) error
}

var orderFields = []orderField{
	{"customer_order_number", stringField(func(o *Order, v string) { o.CustomerOrderNumber = v })},
	{"mode_of_delivery", stringField(func(o *Order, v string) { o.ModeOfDelivery = v })},
	{"terms_of_sale", stringField(func(o *Order, v string) { o.TermsOfSale = v })},
	{"ship_window_start", dateField(func(o *Order, v *time.Time) { o.ShipWindowStart = v })},
	{"ship_window_end", dateField(func(o *Order, v *time.Time) { o.ShipWindowEnd = v })},
	{"first_expected_delivery", dateField(func(o *Order, v *time.Time) { o.FirstExpectedDelivery = v })},
	{"declared_value", decimalField(func(o *Order, v decimal.Decimal) { o.DeclaredValue = v })},
}

var orderFieldIndex = func() map[string]orderField {
	idx := make(map[string]orderField, len(orderFields))
	for _, f := range orderFields {
		idx[f.name] = f
	}
	return idx
}()

func stringField(set func(*Order, string)) func(*Order, any) error {
	return func(o *Order, raw any) error {
		switch v := raw.(type) {
		case nil:
			set(o, "")
		case string:
			set(o, strings.TrimSpace(v))
		case json.Number:
			set(o, v.String())
		case float64:
			set(o, strconv.FormatFloat(v, 'f', -1, 64))
		case fmt.Stringer:
			set(o, strings.TrimSpace(v.String()))
		default:
			set(o, strings.TrimSpace(fmt.Sprint(v)))
		}
		return nil
	}
}

func dateField(set func(*Order, *time.Time)) func(*Order, any) error {
	return func(o *Order, raw any) error {
		switch v := raw.(type) {
		case nil:
			set(o, nil)
			return nil
		case time.Time:
			set(o, &v)
			return nil
		case string:
			v = strings.TrimSpace(v)
			if v == "" {
				set(o, nil)
				return nil
			}
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				return fmt.Errorf("expected a date in YYYY-MM-DD format, got %q", v)
			}
			set(o, &t)
			return nil
		default:
			return fmt.Errorf("expected a date string, got %T", raw)
		}
	}
}

func decimalField(set func(*Order, decimal.Decimal)) func(*Order, any) error {
	return func(o *Order, raw any) error {
		var (
			d   decimal.Decimal
			err error
		)
		switch v := raw.(type) {
		case nil:
			d = decimal.Zero
		case string:
			d, err = decimal.NewFromString(strings.TrimSpace(v))
		case json.Number:
			d, err = decimal.NewFromString(v.String())
		case float64:
			d = decimal.NewFromFloat(v)
		case int:
			d = decimal.NewFromInt(int64(v))
		case int64:
			d = decimal.NewFromInt(v)
		case decimal.Decimal:
			d = v
		default:
			err = fmt.Errorf("expected a number, got %T", raw)
		}
		if err != nil {
			return err
		}
		if d.IsNegative() {
			return fmt.Errorf("must not be negative")
		}
		set(o, d)
		return nil
	}
}
