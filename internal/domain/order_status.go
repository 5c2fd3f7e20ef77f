package domain

import "errors"

type OrderStatus string

// remember to add new statuses to the validOrderStatuses map
const (
	OrderStatusDraft            OrderStatus = "draft"
	OrderStatusUnderReview      OrderStatus = "under_review"
	OrderStatusAwaitingShipment OrderStatus = "awaiting_shipment"
	OrderStatusScheduled        OrderStatus = "scheduled"
	OrderStatusPickedUp         OrderStatus = "picked_up"
	OrderStatusDelivered        OrderStatus = "delivered"
	OrderStatusOnHold           OrderStatus = "on_hold"
	OrderStatusCancelled        OrderStatus = "cancelled"
	OrderStatusClaim            OrderStatus = "claim"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusDraft:            {},
	OrderStatusUnderReview:      {},
	OrderStatusAwaitingShipment: {},
	OrderStatusScheduled:        {},
	OrderStatusPickedUp:         {},
	OrderStatusDelivered:        {},
	OrderStatusOnHold:           {},
	OrderStatusCancelled:        {},
	OrderStatusClaim:            {},
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid order status")
}

func OrderStatuses() []OrderStatus {
	result := make([]OrderStatus, 0, len(validOrderStatuses))
	for status := range validOrderStatuses {
		result = append(result, status)
	}
	return result
}

// CancelReason accompanies a transition to OrderStatusCancelled.
// Any status may move to cancelled, there is no prior-status check.
type CancelReason string

const (
	CancelReasonCustomerRequest   CancelReason = "customer_request"
	CancelReasonDuplicate         CancelReason = "duplicate"
	CancelReasonNoCarrierFound    CancelReason = "no_carrier_found"
	CancelReasonPriceDisagreement CancelReason = "price_disagreement"
	CancelReasonVehicleNotReady   CancelReason = "vehicle_not_ready"
	CancelReasonOther             CancelReason = "other"
)

var validCancelReasons = map[CancelReason]struct{}{
	CancelReasonCustomerRequest:   {},
	CancelReasonDuplicate:         {},
	CancelReasonNoCarrierFound:    {},
	CancelReasonPriceDisagreement: {},
	CancelReasonVehicleNotReady:   {},
	CancelReasonOther:             {},
}

func ToCancelReason(s string) (CancelReason, error) {
	reason := CancelReason(s)
	if _, ok := validCancelReasons[reason]; ok {
		return reason, nil
	}

	return "", errors.New("invalid cancel reason")
}
