package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openhaul/orderflow/internal/domain"
	"github.com/openhaul/orderflow/internal/port"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var (
	ErrNotFound = errors.New("order not found")
	ErrNoRows   = errors.New("no data returned from create_order_and_vehicles")
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type orderRepository struct {
	pool *pgxpool.Pool
}

func NewOrder(pool *pgxpool.Pool) (port.OrderStore, error) {
	if pool == nil {
		return nil, errors.New("pool is nil")
	}

	return &orderRepository{pool: pool}, nil
}

const orderColumns = `id, readable_id, status, cancel_reason, is_archive,
	company_id, client_phone, client_special_instructions,
	pickup_from_id, deliver_to_id,
	ship_date, pickup_date, pickup_date_type, delivery_date, delivery_date_type,
	delivery_speed, distance,
	schedule_special_instructions, pickup_from_special_instructions,
	deliver_to_special_instructions, vehicles_special_instructions,
	carrier_price_amount, carrier_price_currency, broker_fee_amount, broker_fee_currency, valid_till,
	dispatcher_name, dispatcher_phone, dispatcher_show_to_client,
	driver_name, driver_phone, driver_show_to_client, driver_special_instructions,
	carrier_name, carrier_phone, carrier_show_to_client, carrier_special_instructions,
	created_at, updated_at`

type orderRow struct {
	ID           int64   `db:"id"`
	ReadableID   string  `db:"readable_id"`
	Status       string  `db:"status"`
	CancelReason *string `db:"cancel_reason"`
	IsArchive    bool    `db:"is_archive"`

	CompanyID          *string `db:"company_id"`
	ClientPhone        *string `db:"client_phone"`
	ClientInstructions *string `db:"client_special_instructions"`

	PickupFromID *int64 `db:"pickup_from_id"`
	DeliverToID  *int64 `db:"deliver_to_id"`

	ShipDate         *time.Time `db:"ship_date"`
	PickupDate       *time.Time `db:"pickup_date"`
	PickupDateType   *string    `db:"pickup_date_type"`
	DeliveryDate     *time.Time `db:"delivery_date"`
	DeliveryDateType *string    `db:"delivery_date_type"`
	DeliverySpeed    *string    `db:"delivery_speed"`
	Distance         *string    `db:"distance"`

	ScheduleInstructions *string `db:"schedule_special_instructions"`
	PickupInstructions   *string `db:"pickup_from_special_instructions"`
	DeliveryInstructions *string `db:"deliver_to_special_instructions"`
	VehiclesInstructions *string `db:"vehicles_special_instructions"`

	CarrierPriceAmount   decimal.NullDecimal `db:"carrier_price_amount"`
	CarrierPriceCurrency *string             `db:"carrier_price_currency"`
	BrokerFeeAmount      decimal.NullDecimal `db:"broker_fee_amount"`
	BrokerFeeCurrency    *string             `db:"broker_fee_currency"`
	ValidUntil           *time.Time          `db:"valid_till"`

	DispatcherName         *string `db:"dispatcher_name"`
	DispatcherPhone        *string `db:"dispatcher_phone"`
	DispatcherShowToClient bool    `db:"dispatcher_show_to_client"`

	DriverName         *string `db:"driver_name"`
	DriverPhone        *string `db:"driver_phone"`
	DriverShowToClient bool    `db:"driver_show_to_client"`
	DriverInstructions *string `db:"driver_special_instructions"`

	CarrierName         *string `db:"carrier_name"`
	CarrierPhone        *string `db:"carrier_phone"`
	CarrierShowToClient bool    `db:"carrier_show_to_client"`
	CarrierInstructions *string `db:"carrier_special_instructions"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type vehicleRow struct {
	OrderID      int64   `db:"order_id"`
	Make         *string `db:"make"`
	Model        *string `db:"model"`
	Year         *int    `db:"year"`
	VIN          *string `db:"vin"`
	VehicleType  *string `db:"vehicle_type"`
	IsInoperable bool    `db:"is_inoperable"`
}

func (r *orderRepository) CreateOrderAndVehicles(ctx context.Context, input domain.CreateOrderInput) (domain.OrderIDs, error) {
	var ids domain.OrderIDs

	payload, err := json.Marshal(input)
	if err != nil {
		return ids, fmt.Errorf("json.Marshal: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT order_id, order_readable_id FROM create_order_and_vehicles($1::jsonb)`, payload)
	if err != nil {
		return ids, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return ids, fmt.Errorf("rows.Err: %w", err)
		}
		return ids, ErrNoRows
	}

	// only the first row matters, the procedure returns a single pair
	if err := rows.Scan(&ids.OrderID, &ids.OrderReadableID); err != nil {
		return ids, fmt.Errorf("rows.Scan: %w", err)
	}

	rows.Close()
	if err := rows.Err(); err != nil {
		return ids, fmt.Errorf("rows.Err: %w", err)
	}

	return ids, nil
}

func (r *orderRepository) UpdateOrder(ctx context.Context, readableID string, patch domain.OrderPatch) error {
	if readableID == "" {
		return errors.New("readableID is empty")
	}

	if patch.IsZero() {
		return errors.New("patch is empty")
	}

	sets, args := buildOrderPatchSets(patch)

	args = append(args, readableID)
	query := fmt.Sprintf(`UPDATE orders SET %s, updated_at = now() WHERE readable_id = $%d`,
		strings.Join(sets, ", "), len(args))

	cmdTag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("pool.Exec: %w", ErrNotFound)
	}

	return nil
}

func buildOrderPatchSets(p domain.OrderPatch) ([]string, []any) {
	var (
		sets []string
		args []any
	)

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Status != nil {
		set("status", string(*p.Status))
	}
	if p.CancelReason != nil {
		set("cancel_reason", string(*p.CancelReason))
	}
	if p.CompanyID != nil {
		set("company_id", *p.CompanyID)
	}
	if p.ClientPhone != nil {
		set("client_phone", *p.ClientPhone)
	}
	if p.ClientInstructions != nil {
		set("client_special_instructions", *p.ClientInstructions)
	}
	if p.PickupFromID != nil {
		set("pickup_from_id", *p.PickupFromID)
	}
	if p.DeliverToID != nil {
		set("deliver_to_id", *p.DeliverToID)
	}
	if p.ShipDate != nil {
		set("ship_date", *p.ShipDate)
	}
	if p.PickupDate != nil {
		set("pickup_date", *p.PickupDate)
	}
	if p.PickupDateType != nil {
		set("pickup_date_type", *p.PickupDateType)
	}
	if p.DeliveryDate != nil {
		set("delivery_date", *p.DeliveryDate)
	}
	if p.DeliveryDateType != nil {
		set("delivery_date_type", *p.DeliveryDateType)
	}
	if p.DeliverySpeed != nil {
		set("delivery_speed", *p.DeliverySpeed)
	}
	if p.Distance != nil {
		set("distance", *p.Distance)
	}
	if p.ScheduleInstructions != nil {
		set("schedule_special_instructions", *p.ScheduleInstructions)
	}
	if p.PickupInstructions != nil {
		set("pickup_from_special_instructions", *p.PickupInstructions)
	}
	if p.DeliveryInstructions != nil {
		set("deliver_to_special_instructions", *p.DeliveryInstructions)
	}
	if p.CarrierPrice != nil {
		set("carrier_price_amount", p.CarrierPrice.Amount)
		set("carrier_price_currency", p.CarrierPrice.Currency.String())
	}
	if p.BrokerFee != nil {
		set("broker_fee_amount", p.BrokerFee.Amount)
		set("broker_fee_currency", p.BrokerFee.Currency.String())
	}
	if p.ValidUntil != nil {
		set("valid_till", *p.ValidUntil)
	}
	if p.DispatcherName != nil {
		set("dispatcher_name", *p.DispatcherName)
	}
	if p.DispatcherPhone != nil {
		set("dispatcher_phone", *p.DispatcherPhone)
	}
	if p.DispatcherShowToClient != nil {
		set("dispatcher_show_to_client", *p.DispatcherShowToClient)
	}
	if p.DriverName != nil {
		set("driver_name", *p.DriverName)
	}
	if p.DriverPhone != nil {
		set("driver_phone", *p.DriverPhone)
	}
	if p.DriverShowToClient != nil {
		set("driver_show_to_client", *p.DriverShowToClient)
	}
	if p.DriverInstructions != nil {
		set("driver_special_instructions", *p.DriverInstructions)
	}
	if p.CarrierName != nil {
		set("carrier_name", *p.CarrierName)
	}
	if p.CarrierPhone != nil {
		set("carrier_phone", *p.CarrierPhone)
	}
	if p.CarrierShowToClient != nil {
		set("carrier_show_to_client", *p.CarrierShowToClient)
	}
	if p.CarrierInstructions != nil {
		set("carrier_special_instructions", *p.CarrierInstructions)
	}

	return sets, args
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, readableID string, status domain.OrderStatus) error {
	if readableID == "" {
		return errors.New("readableID is empty")
	}

	if status == "" {
		return errors.New("status is empty")
	}

	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = now() WHERE readable_id = $2`,
		string(status), readableID)
	if err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("pool.Exec: %w", ErrNotFound)
	}

	return nil
}

// CancelOrder forces status to cancelled regardless of the prior status.
func (r *orderRepository) CancelOrder(ctx context.Context, readableID string, reason domain.CancelReason) error {
	if readableID == "" {
		return errors.New("readableID is empty")
	}

	if reason == "" {
		return errors.New("cancel reason is empty")
	}

	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $1, cancel_reason = $2, updated_at = now() WHERE readable_id = $3`,
		string(domain.OrderStatusCancelled), string(reason), readableID)
	if err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("pool.Exec: %w", ErrNotFound)
	}

	return nil
}

func (r *orderRepository) SetArchived(ctx context.Context, readableID string, archived bool) error {
	if readableID == "" {
		return errors.New("readableID is empty")
	}

	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE orders SET is_archive = $1, updated_at = now() WHERE readable_id = $2`,
		archived, readableID)
	if err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("pool.Exec: %w", ErrNotFound)
	}

	return nil
}

// AssignUsers inserts all (user, order) pairs in one transaction,
// aborting entirely if any insert fails. An empty list is a no-op.
func (r *orderRepository) AssignUsers(ctx context.Context, orderID int64, userIDs []uuid.UUID) error {
	if orderID == 0 {
		return errors.New("orderID is empty")
	}

	if len(userIDs) == 0 {
		return nil
	}

	if _, err := withTx(ctx, r.pool, func(tx pgx.Tx) (struct{}, error) {
		batch := &pgx.Batch{}
		for _, userID := range userIDs {
			batch.Queue(`INSERT INTO order_users (user_id, order_id) VALUES ($1, $2)`, userID, orderID)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for range userIDs {
			if _, err := results.Exec(); err != nil {
				return struct{}{}, fmt.Errorf("results.Exec: %w", err)
			}
		}

		return struct{}{}, nil
	}); err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

func (r *orderRepository) GetOrder(ctx context.Context, readableID string) (domain.Order, error) {
	var o domain.Order

	if readableID == "" {
		return o, errors.New("readableID is empty")
	}

	order, err := withTx(ctx, r.pool, func(tx pgx.Tx) (domain.Order, error) {
		rows, err := tx.Query(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE readable_id = $1`, readableID)
		if err != nil {
			return o, fmt.Errorf("tx.Query: %w", err)
		}

		row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[orderRow])
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return o, fmt.Errorf("pgx.CollectOneRow: %w", ErrNotFound)
			}
			return o, fmt.Errorf("pgx.CollectOneRow: %w", err)
		}

		order, err := mapOrderRowToDomain(row)
		if err != nil {
			return o, fmt.Errorf("mapOrderRowToDomain: %w", err)
		}

		vehiclesByOrder, err := fetchVehicles(ctx, tx, []int64{order.ID})
		if err != nil {
			return o, fmt.Errorf("fetchVehicles: %w", err)
		}
		order.Vehicles = vehiclesByOrder[order.ID]

		usersByOrder, err := fetchAssignedUsers(ctx, tx, []int64{order.ID})
		if err != nil {
			return o, fmt.Errorf("fetchAssignedUsers: %w", err)
		}
		order.UserIDs = usersByOrder[order.ID]

		return order, nil
	})
	if err != nil {
		return o, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

func (r *orderRepository) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter.Validate: %w", err)
	}

	conds, args := buildOrderFilterConds(filter)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}

	orderRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[orderRow])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}

	if len(orderRows) == 0 {
		return nil, nil
	}

	orders := make([]domain.Order, 0, len(orderRows))
	orderIDs := make([]int64, 0, len(orderRows))
	for _, row := range orderRows {
		order, err := mapOrderRowToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapOrderRowToDomain: %w", err)
		}
		orders = append(orders, order)
		orderIDs = append(orderIDs, order.ID)
	}

	vehiclesByOrder, err := fetchVehicles(ctx, r.pool, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("fetchVehicles: %w", err)
	}

	usersByOrder, err := fetchAssignedUsers(ctx, r.pool, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("fetchAssignedUsers: %w", err)
	}

	for i := range orders {
		orders[i].Vehicles = vehiclesByOrder[orders[i].ID]
		orders[i].UserIDs = usersByOrder[orders[i].ID]
	}

	return orders, nil
}

func buildOrderFilterConds(filter domain.OrderFilter) ([]string, []any) {
	var (
		conds []string
		args  []any
	)

	cond := func(format string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if len(filter.ReadableIDs) > 0 {
		cond("readable_id = ANY($%d)", filter.ReadableIDs)
	}

	if len(filter.CompanyIDs) > 0 {
		cond("company_id = ANY($%d)", filter.CompanyIDs)
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		cond("status = ANY($%d)", statuses)
	}

	if len(filter.UserIDs) > 0 {
		cond("id IN (SELECT order_id FROM order_users WHERE user_id = ANY($%d))", filter.UserIDs)
	}

	if filter.IsArchive != nil {
		cond("is_archive = $%d", *filter.IsArchive)
	}

	if filter.CreatedAt != nil {
		if filter.CreatedAt.After != nil {
			cond("created_at >= $%d", *filter.CreatedAt.After)
		}
		if filter.CreatedAt.Before != nil {
			cond("created_at <= $%d", *filter.CreatedAt.Before)
		}
	}

	return conds, args
}

func fetchVehicles(ctx context.Context, q querier, orderIDs []int64) (map[int64][]domain.VehicleSpec, error) {
	rows, err := q.Query(ctx,
		`SELECT ov.order_id, v.make, v.model, v.year, v.vin, v.vehicle_type, v.is_inoperable
		 FROM order_vehicles ov
		 JOIN vehicles v ON v.id = ov.vehicle_id
		 WHERE ov.order_id = ANY($1)
		 ORDER BY v.id`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("q.Query: %w", err)
	}

	vehicleRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[vehicleRow])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}

	result := make(map[int64][]domain.VehicleSpec, len(orderIDs))
	for _, row := range vehicleRows {
		result[row.OrderID] = append(result[row.OrderID], domain.VehicleSpec{
			Make:         lo.FromPtr(row.Make),
			Model:        lo.FromPtr(row.Model),
			Year:         lo.FromPtr(row.Year),
			VIN:          lo.FromPtr(row.VIN),
			VehicleType:  lo.FromPtr(row.VehicleType),
			IsInoperable: row.IsInoperable,
		})
	}

	return result, nil
}

func fetchAssignedUsers(ctx context.Context, q querier, orderIDs []int64) (map[int64][]uuid.UUID, error) {
	rows, err := q.Query(ctx,
		`SELECT order_id, user_id FROM order_users WHERE order_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("q.Query: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]uuid.UUID, len(orderIDs))
	for rows.Next() {
		var (
			orderID int64
			userID  uuid.UUID
		)
		if err := rows.Scan(&orderID, &userID); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		result[orderID] = append(result[orderID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return result, nil
}

func mapOrderRowToDomain(row orderRow) (domain.Order, error) {
	var o domain.Order

	status, err := domain.ToOrderStatus(row.Status)
	if err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", row.Status, err)
	}

	var cancelReason domain.CancelReason
	if row.CancelReason != nil {
		cancelReason, err = domain.ToCancelReason(*row.CancelReason)
		if err != nil {
			return o, fmt.Errorf("domain.ToCancelReason[%s]: %w", *row.CancelReason, err)
		}
	}

	carrierPrice, err := mapMoneyColumns(row.CarrierPriceAmount, row.CarrierPriceCurrency)
	if err != nil {
		return o, fmt.Errorf("carrier price: %w", err)
	}

	brokerFee, err := mapMoneyColumns(row.BrokerFeeAmount, row.BrokerFeeCurrency)
	if err != nil {
		return o, fmt.Errorf("broker fee: %w", err)
	}

	return domain.Order{
		ID:           row.ID,
		ReadableID:   row.ReadableID,
		Status:       status,
		CancelReason: cancelReason,
		IsArchive:    row.IsArchive,

		CompanyID:          lo.FromPtr(row.CompanyID),
		ClientPhone:        lo.FromPtr(row.ClientPhone),
		ClientInstructions: lo.FromPtr(row.ClientInstructions),

		PickupFromID: row.PickupFromID,
		DeliverToID:  row.DeliverToID,

		ShipDate:         row.ShipDate,
		PickupDate:       row.PickupDate,
		PickupDateType:   lo.FromPtr(row.PickupDateType),
		DeliveryDate:     row.DeliveryDate,
		DeliveryDateType: lo.FromPtr(row.DeliveryDateType),
		DeliverySpeed:    lo.FromPtr(row.DeliverySpeed),
		Distance:         lo.FromPtr(row.Distance),

		ScheduleInstructions: lo.FromPtr(row.ScheduleInstructions),
		PickupInstructions:   lo.FromPtr(row.PickupInstructions),
		DeliveryInstructions: lo.FromPtr(row.DeliveryInstructions),
		VehiclesInstructions: lo.FromPtr(row.VehiclesInstructions),

		CarrierPrice: carrierPrice,
		BrokerFee:    brokerFee,
		ValidUntil:   row.ValidUntil,

		Dispatcher: domain.ContactInfo{
			Name:         lo.FromPtr(row.DispatcherName),
			Phone:        lo.FromPtr(row.DispatcherPhone),
			ShowToClient: row.DispatcherShowToClient,
		},
		Driver: domain.ContactInfo{
			Name:         lo.FromPtr(row.DriverName),
			Phone:        lo.FromPtr(row.DriverPhone),
			ShowToClient: row.DriverShowToClient,
			Instructions: lo.FromPtr(row.DriverInstructions),
		},
		Carrier: domain.ContactInfo{
			Name:         lo.FromPtr(row.CarrierName),
			Phone:        lo.FromPtr(row.CarrierPhone),
			ShowToClient: row.CarrierShowToClient,
			Instructions: lo.FromPtr(row.CarrierInstructions),
		},

		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func mapMoneyColumns(amount decimal.NullDecimal, currencyCode *string) (*domain.Money, error) {
	if !amount.Valid || currencyCode == nil {
		return nil, nil
	}

	parsedCurrency, err := currency.ParseISO(*currencyCode)
	if err != nil {
		return nil, fmt.Errorf("currency[%s] is not valid: %w", *currencyCode, err)
	}

	return &domain.Money{Amount: amount.Decimal, Currency: parsedCurrency}, nil
}
