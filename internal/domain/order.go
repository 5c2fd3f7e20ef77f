package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order is the persisted shipment order. ReadableID is the human-facing
// identifier, distinct from the internal numeric ID; all narrow mutations
// key on it. Orders are never deleted, archival is the IsArchive flag.
type Order struct {
	ID         int64
	ReadableID string

	Status       OrderStatus
	CancelReason CancelReason // set only when Status is cancelled
	IsArchive    bool

	CompanyID          string
	ClientPhone        string
	ClientInstructions string

	PickupFromID *int64
	DeliverToID  *int64

	ShipDate         *time.Time
	PickupDate       *time.Time
	PickupDateType   string
	DeliveryDate     *time.Time
	DeliveryDateType string
	DeliverySpeed    string
	Distance         string

	ScheduleInstructions string
	PickupInstructions   string
	DeliveryInstructions string
	VehiclesInstructions string

	CarrierPrice *Money
	BrokerFee    *Money
	ValidUntil   *time.Time

	Dispatcher ContactInfo
	Driver     ContactInfo
	Carrier    ContactInfo

	UserIDs  []uuid.UUID
	Vehicles []VehicleSpec

	CreatedAt time.Time
	UpdatedAt time.Time
}

// VehicleSpec is one line item of an order.
type VehicleSpec struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	VIN          string `json:"vin,omitempty"`
	VehicleType  string `json:"vehicle_type,omitempty"`
	IsInoperable bool   `json:"is_inoperable"`
}

// ContactInfo is a role-specific contact block (dispatcher, driver, carrier).
type ContactInfo struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	ShowToClient bool   `json:"show_to_client"`
	Instructions string `json:"instructions,omitempty"`
}
