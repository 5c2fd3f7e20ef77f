package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Draft is a validated order form submission. It is a sealed union:
// CreateDraft for new orders, EditDraft for in-place updates of an
// existing order keyed by its readable id.
type Draft interface {
	isDraft()
	Validate() error
}

// OrderDraft holds the fields common to both variants. Business-rule
// validation (non-empty client, at least one vehicle) is the form layer's
// job; only structural invariants are checked here.
type OrderDraft struct {
	CompanyID          string      `json:"company_id"`
	UserIDs            []uuid.UUID `json:"user_ids"`
	ClientPhone        string      `json:"client_phone"`
	ClientInstructions string      `json:"client_special_instructions"`

	Vehicles []VehicleSpec `json:"vehicles"`

	Pickup   LocationRef `json:"pickup"`
	Delivery LocationRef `json:"delivery"`

	ShipDate         *time.Time `json:"ship_date"`
	PickupDate       *time.Time `json:"pickup_date"`
	PickupDateType   string     `json:"pickup_date_type"`
	DeliveryDate     *time.Time `json:"delivery_date"`
	DeliveryDateType string     `json:"delivery_date_type"`
	DeliverySpeed    string     `json:"delivery_speed"`
	Distance         string     `json:"distance"`

	ScheduleInstructions string `json:"schedule_special_instructions"`
	PickupInstructions   string `json:"pickup_from_special_instructions"`
	DeliveryInstructions string `json:"deliver_to_special_instructions"`
	VehiclesInstructions string `json:"vehicles_special_instructions"`
}

func (d OrderDraft) Validate() error {
	if err := d.Pickup.Validate(); err != nil {
		return fmt.Errorf("pickup: %w", err)
	}

	if err := d.Delivery.Validate(); err != nil {
		return fmt.Errorf("delivery: %w", err)
	}

	return nil
}

type CreateDraft struct {
	OrderDraft
}

func (CreateDraft) isDraft() {}

// EditDraft carries the readable id and status of an existing order plus
// the payment and carrier-side contact fields only the edit form exposes.
type EditDraft struct {
	OrderDraft

	ReadableID   string        `json:"readable_id"`
	Status       OrderStatus   `json:"status"`
	CancelReason *CancelReason `json:"cancel_reason,omitempty"`

	CarrierPrice *Money     `json:"carrier_price,omitempty"`
	BrokerFee    *Money     `json:"broker_fee,omitempty"`
	ValidUntil   *time.Time `json:"valid_till,omitempty"`

	Dispatcher ContactInfo `json:"dispatcher"`
	Driver     ContactInfo `json:"driver"`
	Carrier    ContactInfo `json:"carrier"`
}

func (EditDraft) isDraft() {}

func (d EditDraft) Validate() error {
	if d.ReadableID == "" {
		return fmt.Errorf("readable id is empty")
	}

	if _, err := ToOrderStatus(string(d.Status)); err != nil {
		return fmt.Errorf("status[%s]: %w", d.Status, err)
	}

	if d.CancelReason != nil {
		if _, err := ToCancelReason(string(*d.CancelReason)); err != nil {
			return fmt.Errorf("cancel reason[%s]: %w", *d.CancelReason, err)
		}
	}

	return d.OrderDraft.Validate()
}
