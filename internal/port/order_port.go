package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/openhaul/orderflow/internal/domain"
)

type OrderStore interface {
	// CreateOrderAndVehicles calls the stored procedure of the same name,
	// which resolves locations, inserts the order and associates vehicles
	// in a single server-side transaction.
	CreateOrderAndVehicles(ctx context.Context, input domain.CreateOrderInput) (domain.OrderIDs, error)

	UpdateOrder(ctx context.Context, readableID string, patch domain.OrderPatch) error
	UpdateOrderStatus(ctx context.Context, readableID string, status domain.OrderStatus) error
	CancelOrder(ctx context.Context, readableID string, reason domain.CancelReason) error
	SetArchived(ctx context.Context, readableID string, archived bool) error

	AssignUsers(ctx context.Context, orderID int64, userIDs []uuid.UUID) error

	GetOrder(ctx context.Context, readableID string) (domain.Order, error)
	SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
}

type LocationStore interface {
	InsertLocation(ctx context.Context, attrs domain.LocationAttrs) (int64, error)

	ListLocations(ctx context.Context) ([]domain.Location, error)
	ListTerminals(ctx context.Context, createdBy string) ([]domain.Location, error)
}
