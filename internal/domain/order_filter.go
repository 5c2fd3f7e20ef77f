package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderFilter has AND semantics across fields, OR semantics within each field slice
type OrderFilter struct {
	ReadableIDs []string
	CompanyIDs  []string
	UserIDs     []uuid.UUID
	Statuses    []OrderStatus
	IsArchive   *bool
	CreatedAt   *TimeRange
}

func (f OrderFilter) Validate() error {
	if len(f.ReadableIDs) == 0 && len(f.CompanyIDs) == 0 && len(f.UserIDs) == 0 && len(f.Statuses) == 0 && f.IsArchive == nil && f.CreatedAt == nil {
		return errors.New("all fields are empty")
	}

	for _, status := range f.Statuses {
		if _, err := ToOrderStatus(string(status)); err != nil {
			return fmt.Errorf("status[%s]: %w", status, err)
		}
	}

	if f.CreatedAt != nil {
		if err := f.CreatedAt.Validate(); err != nil {
			return fmt.Errorf("createdAt: %w", err)
		}
	}

	return nil
}

type TimeRange struct {
	Before *time.Time
	After  *time.Time
}

func (t TimeRange) Validate() error {
	if t.Before == nil && t.After == nil {
		return errors.New("both Before and After are nil")
	}

	if t.Before != nil && t.After != nil {
		if t.Before.Before(*t.After) {
			return fmt.Errorf("before is before After")
		}
	}

	return nil
}
