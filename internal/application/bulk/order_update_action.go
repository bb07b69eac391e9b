package bulkapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/tradecomply/backend/internal/domain/audit"
	"github.com/tradecomply/backend/internal/domain/trade"
)

// BulkTypeOrderUpdate labels Bulk Order Update runs
const BulkTypeOrderUpdate = "Bulk Order Update"

// OrderUpdateAction sets the permitted subset of the order fields present in the
// run options, then writes an audit snapshot of the order.
type OrderUpdateAction struct{}

// NewOrderUpdateAction creates an OrderUpdateAction
func NewOrderUpdateAction() *OrderUpdateAction {
	return &OrderUpdateAction{}
}

// BulkType implements Action
func (a *OrderUpdateAction) BulkType() string { return BulkTypeOrderUpdate }

// Act implements Action
func (a *OrderUpdateAction) Act(ctx context.Context, req ActRequest) error {
	record, err := req.Repos.Records().FindRecord(ctx, trade.RecordTypeOrder, req.RecordID)
	if err != nil {
		return fmt.Errorf("failed to find order %s: %w", req.RecordID, err)
	}
	order, ok := record.(*trade.Order)
	if !ok {
		return fmt.Errorf("record directory returned %T for an order", record)
	}

	ref := order.Ref()
	if !order.CanEdit(req.User) {
		return req.Log.Fail(ctx, ref, req.SequenceNumber,
			fmt.Sprintf("You do not have permission to update the record with ID %s.", req.RecordID))
	}

	values := map[string]any(req.Options)
	fields := order.UpdatableFieldsFor(req.User, values)
	if len(fields) == 0 {
		return req.Log.Succeed(ctx, ref, req.SequenceNumber, "No fields you are permitted to update were supplied.")
	}

	if err := order.ApplyUpdates(values, fields); err != nil {
		if msg, ok := domainMessage(err); ok {
			return req.Log.Fail(ctx, ref, req.SequenceNumber, msg)
		}
		return err
	}
	if err := req.Repos.Orders().Save(ctx, order); err != nil {
		return fmt.Errorf("failed to save order %s: %w", req.RecordID, err)
	}

	snapshot, err := audit.NewEntitySnapshot(ref, req.User.ID, a.BulkType(), order)
	if err != nil {
		return err
	}
	if err := req.Repos.Snapshots().Create(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to write snapshot for order %s: %w", req.RecordID, err)
	}

	return req.Log.Succeed(ctx, ref, req.SequenceNumber, "Updated "+strings.Join(fields, ", ")+".")
}
