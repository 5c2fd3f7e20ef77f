package domain

import (
	"time"

	"github.com/google/uuid"
)

// CreateOrderInput is the single argument of the create_order_and_vehicles
// stored procedure. Dates are pre-normalized to YYYY-MM-DD strings, each
// route endpoint is either an id of an existing location or an inline JSON
// payload, never both.
type CreateOrderInput struct {
	CompanyID          string      `json:"company_id,omitempty"`
	UserIDs            []uuid.UUID `json:"user_ids"`
	ClientPhone        string      `json:"client_phone,omitempty"`
	ClientInstructions string      `json:"client_special_instructions,omitempty"`

	Vehicles []VehicleSpec `json:"vehicles"`

	PickupFromID   *int64         `json:"pickup_from_id,omitempty"`
	PickupFromJSON *LocationAttrs `json:"pickup_from_json,omitempty"`
	DeliverToID    *int64         `json:"deliver_to_id,omitempty"`
	DeliverToJSON  *LocationAttrs `json:"deliver_to_json,omitempty"`

	ShipDate         string `json:"ship_date,omitempty"`
	PickupDate       string `json:"pickup_date,omitempty"`
	PickupDateType   string `json:"pickup_date_type,omitempty"`
	DeliveryDate     string `json:"delivery_date,omitempty"`
	DeliveryDateType string `json:"delivery_date_type,omitempty"`
	DeliverySpeed    string `json:"delivery_speed,omitempty"`
	Distance         string `json:"distance,omitempty"`

	ScheduleInstructions string `json:"schedule_special_instructions,omitempty"`
	PickupInstructions   string `json:"pickup_from_special_instructions,omitempty"`
	DeliveryInstructions string `json:"deliver_to_special_instructions,omitempty"`
	VehiclesInstructions string `json:"vehicles_special_instructions,omitempty"`
}

// OrderIDs is the first row returned by create_order_and_vehicles.
type OrderIDs struct {
	OrderID         int64
	OrderReadableID string
}

// OrderPatch is the mutable column set of the edit path. Nil fields are
// left out of the UPDATE statement entirely; user ids, vehicles and inline
// location payloads are not mutable on this path.
type OrderPatch struct {
	Status       *OrderStatus
	CancelReason *CancelReason

	CompanyID          *string
	ClientPhone        *string
	ClientInstructions *string

	PickupFromID *int64
	DeliverToID  *int64

	ShipDate         *time.Time
	PickupDate       *time.Time
	PickupDateType   *string
	DeliveryDate     *time.Time
	DeliveryDateType *string
	DeliverySpeed    *string
	Distance         *string

	ScheduleInstructions *string
	PickupInstructions   *string
	DeliveryInstructions *string

	CarrierPrice *Money
	BrokerFee    *Money
	ValidUntil   *time.Time

	DispatcherName         *string
	DispatcherPhone        *string
	DispatcherShowToClient *bool

	DriverName         *string
	DriverPhone        *string
	DriverShowToClient *bool
	DriverInstructions *string

	CarrierName         *string
	CarrierPhone        *string
	CarrierShowToClient *bool
	CarrierInstructions *string
}

// IsZero reports whether the patch would produce an empty SET clause.
func (p OrderPatch) IsZero() bool {
	return p == (OrderPatch{})
}
