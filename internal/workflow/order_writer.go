package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openhaul/orderflow/internal/cache"
	"github.com/openhaul/orderflow/internal/domain"
	"github.com/openhaul/orderflow/internal/port"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// OrderWriter converts a validated order draft into exactly one persistence
// call, resolving inline location references on demand, and invalidates the
// affected cache keys afterwards.
type OrderWriter struct {
	orders    port.OrderStore
	locations port.LocationStore
	cache     port.CacheInvalidator
	logger    *zap.Logger
}

func NewOrderWriter(orders port.OrderStore, locations port.LocationStore, invalidator port.CacheInvalidator, logger *zap.Logger) (*OrderWriter, error) {
	if orders == nil {
		return nil, errors.New("order store is nil")
	}
	if locations == nil {
		return nil, errors.New("location store is nil")
	}
	if invalidator == nil {
		return nil, errors.New("cache invalidator is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OrderWriter{
		orders:    orders,
		locations: locations,
		cache:     invalidator,
		logger:    logger,
	}, nil
}

// WriteResult identifies the written order. OrderID is zero on the edit
// path, which only knows the readable id.
type WriteResult struct {
	OrderID         int64
	OrderReadableID string
}

func (w *OrderWriter) Submit(ctx context.Context, draft domain.Draft) (WriteResult, error) {
	var result WriteResult

	if draft == nil {
		return result, errors.New("draft is nil")
	}

	if err := draft.Validate(); err != nil {
		return result, fmt.Errorf("draft.Validate: %w", err)
	}

	switch d := draft.(type) {
	case domain.CreateDraft:
		return w.create(ctx, d)
	case domain.EditDraft:
		return w.edit(ctx, d)
	default:
		return result, fmt.Errorf("unsupported draft type %T", draft)
	}
}

func (w *OrderWriter) create(ctx context.Context, d domain.CreateDraft) (WriteResult, error) {
	var result WriteResult

	input := buildCreateInput(d)

	ids, err := w.orders.CreateOrderAndVehicles(ctx, input)
	if err != nil {
		return result, fmt.Errorf("orders.CreateOrderAndVehicles: %w", err)
	}

	w.invalidate(ctx, cache.KeyOrders, cache.KeyOrder(ids.OrderReadableID))

	return WriteResult{
		OrderID:         ids.OrderID,
		OrderReadableID: ids.OrderReadableID,
	}, nil
}

// edit resolves unpersisted route endpoints first and then issues a single
// order update. The two steps are not wrapped in a transaction: an
// interrupt in between leaves an orphaned location row, matching the
// behavior this workflow replaces.
func (w *OrderWriter) edit(ctx context.Context, d domain.EditDraft) (WriteResult, error) {
	var result WriteResult

	deliverToID := w.resolveLocation(ctx, d.Delivery, "deliver_to", d.ReadableID)
	pickupFromID := w.resolveLocation(ctx, d.Pickup, "pickup_from", d.ReadableID)

	patch := buildEditPatch(d, pickupFromID, deliverToID)

	if err := w.orders.UpdateOrder(ctx, d.ReadableID, patch); err != nil {
		return result, fmt.Errorf("orders.UpdateOrder: %w", err)
	}

	w.invalidate(ctx, cache.KeyOrders, cache.KeyOrder(d.ReadableID))

	return WriteResult{OrderReadableID: d.ReadableID}, nil
}

// resolveLocation persists an inline endpoint and returns its new id.
// Insert failures are logged and swallowed: the order update proceeds with
// an unresolved location id rather than aborting. Coordinates are stripped
// before the insert.
func (w *OrderWriter) resolveLocation(ctx context.Context, ref domain.LocationRef, endpoint, readableID string) *int64 {
	if ref.Resolved() {
		return ref.ID
	}

	if ref.Inline == nil {
		return nil
	}

	id, err := w.locations.InsertLocation(ctx, ref.Inline.WithoutCoordinates())
	if err != nil {
		w.logger.Error("inserting order location",
			zap.String("endpoint", endpoint),
			zap.String("readable_id", readableID),
			zap.Error(err))
		return nil
	}

	return &id
}

func (w *OrderWriter) UpdateStatus(ctx context.Context, readableID string, status domain.OrderStatus) (string, error) {
	if _, err := domain.ToOrderStatus(string(status)); err != nil {
		return "", fmt.Errorf("domain.ToOrderStatus[%s]: %w", status, err)
	}

	if err := w.orders.UpdateOrderStatus(ctx, readableID, status); err != nil {
		return "", fmt.Errorf("orders.UpdateOrderStatus: %w", err)
	}

	w.invalidate(ctx, cache.KeyOrders, cache.KeyOrder(readableID))

	return readableID, nil
}

// Cancel forces the order to cancelled with the given reason, whatever the
// prior status was.
func (w *OrderWriter) Cancel(ctx context.Context, readableID string, reason domain.CancelReason) (string, error) {
	if _, err := domain.ToCancelReason(string(reason)); err != nil {
		return "", fmt.Errorf("domain.ToCancelReason[%s]: %w", reason, err)
	}

	if err := w.orders.CancelOrder(ctx, readableID, reason); err != nil {
		return "", fmt.Errorf("orders.CancelOrder: %w", err)
	}

	w.invalidate(ctx, cache.KeyOrders, cache.KeyOrder(readableID))

	return readableID, nil
}

func (w *OrderWriter) Archive(ctx context.Context, readableID string, archived bool) (string, error) {
	if err := w.orders.SetArchived(ctx, readableID, archived); err != nil {
		return "", fmt.Errorf("orders.SetArchived: %w", err)
	}

	w.invalidate(ctx, cache.KeyOrders, cache.KeyOrder(readableID))

	return readableID, nil
}

type AssignUsersParams struct {
	OrderID    int64
	ReadableID string
	UserIDs    []uuid.UUID
}

// AssignUsers bulk-inserts (user, order) pairs, all or nothing. An empty
// user list is a no-op; the input readable id is returned unchanged.
func (w *OrderWriter) AssignUsers(ctx context.Context, params AssignUsersParams) (string, error) {
	if err := w.orders.AssignUsers(ctx, params.OrderID, params.UserIDs); err != nil {
		return "", fmt.Errorf("orders.AssignUsers: %w", err)
	}

	w.invalidate(ctx, cache.KeyOrders, cache.KeyOrder(params.ReadableID))

	return params.ReadableID, nil
}

// ResolveLocation persists a standalone inline location, outside of any
// order write. Unlike the edit path pre-resolution, failures surface.
func (w *OrderWriter) ResolveLocation(ctx context.Context, attrs domain.LocationAttrs) (int64, error) {
	id, err := w.locations.InsertLocation(ctx, attrs)
	if err != nil {
		return 0, fmt.Errorf("locations.InsertLocation: %w", err)
	}

	w.invalidate(ctx, cache.KeyOrderLocations)

	return id, nil
}

// invalidate drops cache keys after a successful write. The write is
// already durable, so a failure here only means stale reads until expiry.
func (w *OrderWriter) invalidate(ctx context.Context, keys ...string) {
	if err := w.cache.Invalidate(ctx, keys...); err != nil {
		w.logger.Warn("cache invalidation", zap.Strings("keys", keys), zap.Error(err))
	}
}

func buildCreateInput(d domain.CreateDraft) domain.CreateOrderInput {
	input := domain.CreateOrderInput{
		CompanyID:          d.CompanyID,
		UserIDs:            lo.Ternary(d.UserIDs != nil, d.UserIDs, []uuid.UUID{}),
		ClientPhone:        d.ClientPhone,
		ClientInstructions: d.ClientInstructions,

		Vehicles: d.Vehicles,

		ShipDate:         formatDate(d.ShipDate),
		PickupDate:       formatDate(d.PickupDate),
		PickupDateType:   d.PickupDateType,
		DeliveryDate:     formatDate(d.DeliveryDate),
		DeliveryDateType: d.DeliveryDateType,
		DeliverySpeed:    d.DeliverySpeed,
		Distance:         d.Distance,

		ScheduleInstructions: d.ScheduleInstructions,
		PickupInstructions:   d.PickupInstructions,
		DeliveryInstructions: d.DeliveryInstructions,
		VehiclesInstructions: d.VehiclesInstructions,
	}

	if d.Pickup.Resolved() {
		input.PickupFromID = d.Pickup.ID
	} else {
		input.PickupFromJSON = d.Pickup.Inline
	}

	if d.Delivery.Resolved() {
		input.DeliverToID = d.Delivery.ID
	} else {
		input.DeliverToJSON = d.Delivery.Inline
	}

	return input
}

// buildEditPatch maps an edit draft onto the mutable order columns. Inline
// location payloads, user ids and vehicles are dropped, they are not part
// of this path.
func buildEditPatch(d domain.EditDraft, pickupFromID, deliverToID *int64) domain.OrderPatch {
	return domain.OrderPatch{
		Status:       lo.ToPtr(d.Status),
		CancelReason: d.CancelReason,

		CompanyID:          lo.EmptyableToPtr(d.CompanyID),
		ClientPhone:        lo.EmptyableToPtr(d.ClientPhone),
		ClientInstructions: lo.EmptyableToPtr(d.ClientInstructions),

		PickupFromID: pickupFromID,
		DeliverToID:  deliverToID,

		ShipDate:         d.ShipDate,
		PickupDate:       d.PickupDate,
		PickupDateType:   lo.EmptyableToPtr(d.PickupDateType),
		DeliveryDate:     d.DeliveryDate,
		DeliveryDateType: lo.EmptyableToPtr(d.DeliveryDateType),
		DeliverySpeed:    lo.EmptyableToPtr(d.DeliverySpeed),
		Distance:         lo.EmptyableToPtr(d.Distance),

		ScheduleInstructions: lo.EmptyableToPtr(d.ScheduleInstructions),
		PickupInstructions:   lo.EmptyableToPtr(d.PickupInstructions),
		DeliveryInstructions: lo.EmptyableToPtr(d.DeliveryInstructions),

		CarrierPrice: d.CarrierPrice,
		BrokerFee:    d.BrokerFee,
		ValidUntil:   d.ValidUntil,

		DispatcherName:         lo.EmptyableToPtr(d.Dispatcher.Name),
		DispatcherPhone:        lo.EmptyableToPtr(d.Dispatcher.Phone),
		DispatcherShowToClient: lo.ToPtr(d.Dispatcher.ShowToClient),

		DriverName:         lo.EmptyableToPtr(d.Driver.Name),
		DriverPhone:        lo.EmptyableToPtr(d.Driver.Phone),
		DriverShowToClient: lo.ToPtr(d.Driver.ShowToClient),
		DriverInstructions: lo.EmptyableToPtr(d.Driver.Instructions),

		CarrierName:         lo.EmptyableToPtr(d.Carrier.Name),
		CarrierPhone:        lo.EmptyableToPtr(d.Carrier.Phone),
		CarrierShowToClient: lo.ToPtr(d.Carrier.ShowToClient),
		CarrierInstructions: lo.EmptyableToPtr(d.Carrier.Instructions),
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
