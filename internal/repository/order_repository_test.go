package repository_test

import (
	"sort"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openhaul/orderflow/internal/domain"
	"github.com/openhaul/orderflow/internal/port"
	"github.com/openhaul/orderflow/internal/repository"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"go.uber.org/goleak"
	"golang.org/x/text/currency"
)

type orderRepositorySuite struct {
	suite.Suite

	repo      port.OrderStore
	locations port.LocationStore
	pool      *pgxpool.Pool
	container testcontainers.Container
}

// entry point to run the tests in the suite
func TestOrderRepositorySuite(t *testing.T) {
	// Verifies no leaks after all tests in the suite run.
	defer goleak.VerifyNone(t)

	suite.Run(t, new(orderRepositorySuite))
}

// before all tests in the suite
func (suite *orderRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	var (
		connStr string
		err     error
	)

	suite.container, connStr, err = startPostgres(ctx)
	suite.NoError(err)

	suite.pool, err = pgxpool.New(ctx, connStr)
	suite.NoError(err)

	suite.repo, err = repository.NewOrder(suite.pool)
	suite.NoError(err)

	suite.locations, err = repository.NewLocation(suite.pool)
	suite.NoError(err)
}

// after all tests in the suite
func (suite *orderRepositorySuite) TearDownSuite() {
	ctx := suite.T().Context()

	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(suite.container.Terminate(ctx))
	}
}

func (suite *orderRepositorySuite) TestCreateOrderAndVehicles() {
	defer suite.deleteAll()

	tests := []struct {
		name      string
		inputFunc func() domain.CreateOrderInput
		check     func(t *testing.T, input domain.CreateOrderInput, order domain.Order)
	}{
		{
			name: "inline locations, two vehicles, two users: ok",
			inputFunc: func() domain.CreateOrderInput {
				input := randomCreateInput()
				input.Vehicles = []domain.VehicleSpec{randomVehicle(), randomVehicle()}
				input.UserIDs = []uuid.UUID{
					uuid.MustParse(gofakeit.UUID()),
					uuid.MustParse(gofakeit.UUID()),
				}
				return input
			},
			check: func(t *testing.T, input domain.CreateOrderInput, order domain.Order) {
				assert.NotNil(t, order.PickupFromID)
				assert.NotNil(t, order.DeliverToID)
				assert.ElementsMatch(t, input.UserIDs, order.UserIDs)
				assertVehicles(t, input.Vehicles, order.Vehicles)
			},
		},
		{
			name: "no users, single vehicle: ok",
			inputFunc: func() domain.CreateOrderInput {
				input := randomCreateInput()
				input.UserIDs = []uuid.UUID{}
				return input
			},
			check: func(t *testing.T, input domain.CreateOrderInput, order domain.Order) {
				assert.Empty(t, order.UserIDs)
				assertVehicles(t, input.Vehicles, order.Vehicles)
			},
		},
		{
			name: "existing location ids: no new location rows",
			inputFunc: func() domain.CreateOrderInput {
				ctx := suite.T().Context()

				pickupID, err := suite.locations.InsertLocation(ctx, randomLocationAttrs())
				suite.NoError(err)
				deliverID, err := suite.locations.InsertLocation(ctx, randomLocationAttrs())
				suite.NoError(err)

				input := randomCreateInput()
				input.PickupFromJSON = nil
				input.DeliverToJSON = nil
				input.PickupFromID = &pickupID
				input.DeliverToID = &deliverID
				return input
			},
			check: func(t *testing.T, input domain.CreateOrderInput, order domain.Order) {
				assert.Equal(t, input.PickupFromID, order.PickupFromID)
				assert.Equal(t, input.DeliverToID, order.DeliverToID)
			},
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			input := tt.inputFunc()

			ids, err := suite.repo.CreateOrderAndVehicles(ctx, input)
			require.NoError(t, err)
			assert.NotZero(t, ids.OrderID)
			assert.NotEmpty(t, ids.OrderReadableID)

			order, err := suite.repo.GetOrder(ctx, ids.OrderReadableID)
			require.NoError(t, err)

			assert.Equal(t, ids.OrderID, order.ID)
			assert.Equal(t, domain.OrderStatusUnderReview, order.Status)
			assert.Equal(t, input.CompanyID, order.CompanyID)
			assert.Equal(t, input.ClientPhone, order.ClientPhone)
			assert.Equal(t, input.ShipDate, formatDate(order.ShipDate))
			assert.Equal(t, input.PickupDate, formatDate(order.PickupDate))
			assert.Equal(t, input.DeliveryDate, formatDate(order.DeliveryDate))
			assert.False(t, order.IsArchive)
			assert.False(t, order.CreatedAt.IsZero())
			assert.False(t, order.UpdatedAt.IsZero())

			tt.check(t, input, order)
		})
	}
}

func (suite *orderRepositorySuite) TestUpdateOrder() {
	defer suite.deleteAll()

	carrierPrice := domain.Money{
		Amount:   decimal.NewFromFloat(gofakeit.Price(500, 2000)),
		Currency: currency.USD,
	}

	tests := []struct {
		name       string
		patch      domain.OrderPatch
		readableID string // if empty, target the inserted order
		wantError  string
		check      func(t *testing.T, order domain.Order)
	}{
		{
			name: "status and payment fields: ok",
			patch: domain.OrderPatch{
				Status:       lo.ToPtr(domain.OrderStatusOnHold),
				CarrierPrice: &carrierPrice,
				DriverName:   lo.ToPtr("Pat Doe"),
				DriverPhone:  lo.ToPtr("555-0134"),
			},
			check: func(t *testing.T, order domain.Order) {
				assert.Equal(t, domain.OrderStatusOnHold, order.Status)
				require.NotNil(t, order.CarrierPrice)
				assert.True(t, carrierPrice.Amount.Equal(order.CarrierPrice.Amount))
				assert.Equal(t, "USD", order.CarrierPrice.Currency.String())
				assert.Equal(t, "Pat Doe", order.Driver.Name)
				assert.Equal(t, "555-0134", order.Driver.Phone)
			},
		},
		{
			name: "status only: ok",
			patch: domain.OrderPatch{
				Status: lo.ToPtr(domain.OrderStatusScheduled),
			},
			check: func(t *testing.T, order domain.Order) {
				assert.Equal(t, domain.OrderStatusScheduled, order.Status)
			},
		},
		{
			name: "non-existing order: not found",
			patch: domain.OrderPatch{
				Status: lo.ToPtr(domain.OrderStatusOnHold),
			},
			readableID: "ORD-0",
			wantError:  "pool.Exec: order not found",
		},
		{
			name:      "empty patch: error",
			patch:     domain.OrderPatch{},
			wantError: "patch is empty",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			ids := suite.createOrder()

			readableID := ids.OrderReadableID
			if tt.readableID != "" {
				readableID = tt.readableID
			}

			err := suite.repo.UpdateOrder(ctx, readableID, tt.patch)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			order, err := suite.repo.GetOrder(ctx, ids.OrderReadableID)
			require.NoError(t, err)

			tt.check(t, order)
		})
	}
}

func (suite *orderRepositorySuite) TestUpdateOrderStatus() {
	defer suite.deleteAll()

	tests := []struct {
		name       string
		newStatus  domain.OrderStatus
		readableID string
		wantError  string
	}{
		{
			name:      "update status of existing order: ok",
			newStatus: domain.OrderStatusScheduled,
		},
		{
			name:       "update status of non-existing order: not found",
			newStatus:  domain.OrderStatusScheduled,
			readableID: "ORD-0",
			wantError:  "pool.Exec: order not found",
		},
		{
			name:      "update status with empty status: error",
			newStatus: "",
			wantError: "status is empty",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			ids := suite.createOrder()

			readableID := ids.OrderReadableID
			if tt.readableID != "" {
				readableID = tt.readableID
			}

			err := suite.repo.UpdateOrderStatus(ctx, readableID, tt.newStatus)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			order, err := suite.repo.GetOrder(ctx, ids.OrderReadableID)
			require.NoError(t, err)
			assert.Equal(t, tt.newStatus, order.Status)
		})
	}
}

func (suite *orderRepositorySuite) TestCancelOrder() {
	defer suite.deleteAll()

	// cancel applies from any prior status, there is no state machine
	priorStatuses := []domain.OrderStatus{
		domain.OrderStatusDraft,
		domain.OrderStatusScheduled,
		domain.OrderStatusDelivered,
		domain.OrderStatusCancelled,
	}

	for _, prior := range priorStatuses {
		suite.Run(string(prior), func() {
			t := suite.T()
			ctx := t.Context()

			ids := suite.createOrder()

			err := suite.repo.UpdateOrderStatus(ctx, ids.OrderReadableID, prior)
			require.NoError(t, err)

			err = suite.repo.CancelOrder(ctx, ids.OrderReadableID, domain.CancelReasonCustomerRequest)
			require.NoError(t, err)

			order, err := suite.repo.GetOrder(ctx, ids.OrderReadableID)
			require.NoError(t, err)

			assert.Equal(t, domain.OrderStatusCancelled, order.Status)
			assert.Equal(t, domain.CancelReasonCustomerRequest, order.CancelReason)
		})
	}
}

func (suite *orderRepositorySuite) TestSetArchived() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	ids := suite.createOrder()

	err := suite.repo.SetArchived(ctx, ids.OrderReadableID, true)
	require.NoError(t, err)

	order, err := suite.repo.GetOrder(ctx, ids.OrderReadableID)
	require.NoError(t, err)
	assert.True(t, order.IsArchive)

	err = suite.repo.SetArchived(ctx, "ORD-0", true)
	require.EqualError(t, err, "pool.Exec: order not found")
}

func (suite *orderRepositorySuite) TestAssignUsers() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	ids := suite.createOrder()

	userIDs := []uuid.UUID{
		uuid.MustParse(gofakeit.UUID()),
		uuid.MustParse(gofakeit.UUID()),
	}

	err := suite.repo.AssignUsers(ctx, ids.OrderID, userIDs)
	require.NoError(t, err)

	order, err := suite.repo.GetOrder(ctx, ids.OrderReadableID)
	require.NoError(t, err)
	assert.ElementsMatch(t, userIDs, order.UserIDs)

	// empty list is a no-op
	err = suite.repo.AssignUsers(ctx, ids.OrderID, nil)
	require.NoError(t, err)

	// a duplicate pair aborts the whole batch: the fresh user must not be inserted either
	freshUser := uuid.MustParse(gofakeit.UUID())
	err = suite.repo.AssignUsers(ctx, ids.OrderID, []uuid.UUID{freshUser, userIDs[0]})
	require.Error(t, err)

	order, err = suite.repo.GetOrder(ctx, ids.OrderReadableID)
	require.NoError(t, err)
	assert.ElementsMatch(t, userIDs, order.UserIDs)
	assert.NotContains(t, order.UserIDs, freshUser)
}

func (suite *orderRepositorySuite) TestSearchOrders() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	ids1 := suite.createOrder()
	ids2 := suite.createOrder()

	err := suite.repo.UpdateOrderStatus(ctx, ids2.OrderReadableID, domain.OrderStatusScheduled)
	require.NoError(t, err)

	err = suite.repo.SetArchived(ctx, ids1.OrderReadableID, true)
	require.NoError(t, err)

	userID := uuid.MustParse(gofakeit.UUID())
	err = suite.repo.AssignUsers(ctx, ids1.OrderID, []uuid.UUID{userID})
	require.NoError(t, err)

	order1, err := suite.repo.GetOrder(ctx, ids1.OrderReadableID)
	require.NoError(t, err)

	tests := []struct {
		name            string
		filter          domain.OrderFilter
		wantReadableIDs []string
		wantError       string
	}{
		{
			name:      "empty filter: error",
			filter:    domain.OrderFilter{},
			wantError: "filter.Validate: all fields are empty",
		},
		{
			name: "by readable ids: both found",
			filter: domain.OrderFilter{
				ReadableIDs: []string{ids1.OrderReadableID, ids2.OrderReadableID},
			},
			wantReadableIDs: []string{ids1.OrderReadableID, ids2.OrderReadableID},
		},
		{
			name: "by status: 1 found",
			filter: domain.OrderFilter{
				Statuses: []domain.OrderStatus{domain.OrderStatusScheduled},
			},
			wantReadableIDs: []string{ids2.OrderReadableID},
		},
		{
			name: "by archive flag: 1 found",
			filter: domain.OrderFilter{
				IsArchive: lo.ToPtr(true),
			},
			wantReadableIDs: []string{ids1.OrderReadableID},
		},
		{
			name: "by assigned user: 1 found",
			filter: domain.OrderFilter{
				UserIDs: []uuid.UUID{userID},
			},
			wantReadableIDs: []string{ids1.OrderReadableID},
		},
		{
			name: "by company: 1 found",
			filter: domain.OrderFilter{
				CompanyIDs: []string{order1.CompanyID},
			},
			wantReadableIDs: []string{ids1.OrderReadableID},
		},
		{
			name: "by assigned user: not found",
			filter: domain.OrderFilter{
				UserIDs: []uuid.UUID{uuid.MustParse(gofakeit.UUID())},
			},
		},
		{
			name: "invalid status in filter: error",
			filter: domain.OrderFilter{
				Statuses: []domain.OrderStatus{"shipped"},
			},
			wantError: "filter.Validate: status[shipped]: invalid order status",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			orders, err := suite.repo.SearchOrders(t.Context(), tt.filter)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			actual := make([]string, 0, len(orders))
			for _, order := range orders {
				actual = append(actual, order.ReadableID)
			}

			sort.Strings(actual)
			expected := append([]string(nil), tt.wantReadableIDs...)
			sort.Strings(expected)

			assert.Equal(t, expected, actual)
		})
	}
}

func (suite *orderRepositorySuite) TestGetOrder_NotFound() {
	t := suite.T()

	_, err := suite.repo.GetOrder(t.Context(), "ORD-0")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func (suite *orderRepositorySuite) createOrder() domain.OrderIDs {
	ids, err := suite.repo.CreateOrderAndVehicles(suite.T().Context(), randomCreateInput())
	suite.NoError(err)
	return ids
}

func (suite *orderRepositorySuite) deleteAll() {
	_, err := suite.pool.Exec(suite.T().Context(),
		"TRUNCATE TABLE order_users, order_vehicles, vehicles, orders, order_locations CASCADE")
	suite.NoError(err)
}

func randomCreateInput() domain.CreateOrderInput {
	return domain.CreateOrderInput{
		CompanyID:   gofakeit.UUID(),
		UserIDs:     []uuid.UUID{},
		ClientPhone: gofakeit.Phone(),

		Vehicles: []domain.VehicleSpec{randomVehicle()},

		PickupFromJSON: lo.ToPtr(randomLocationAttrs()),
		DeliverToJSON:  lo.ToPtr(randomLocationAttrs()),

		ShipDate:         "2026-09-10",
		PickupDate:       "2026-09-12",
		PickupDateType:   "estimated",
		DeliveryDate:     "2026-09-20",
		DeliveryDateType: "estimated",
		DeliverySpeed:    "standard",
		Distance:         "1250 mi",
	}
}

func randomVehicle() domain.VehicleSpec {
	return domain.VehicleSpec{
		Make:        gofakeit.CarMaker(),
		Model:       gofakeit.CarModel(),
		Year:        gofakeit.Number(1990, 2026),
		VIN:         gofakeit.LetterN(17),
		VehicleType: gofakeit.CarType(),
	}
}

func randomLocationAttrs() domain.LocationAttrs {
	return domain.LocationAttrs{
		BusinessName: gofakeit.Company(),
		LocationType: "business",
		Zip:          gofakeit.Zip(),
		Address:      gofakeit.Street(),
		City:         gofakeit.City(),
		State:        gofakeit.StateAbr(),
		ContactName:  gofakeit.Name(),
		ContactPhone: gofakeit.Phone(),
		CreatedBy:    gofakeit.UUID(),
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func assertVehicles(t *testing.T, expected, actual []domain.VehicleSpec) {
	t.Helper()

	sortVehicles := func(vehicles []domain.VehicleSpec) {
		sort.Slice(vehicles, func(i, j int) bool {
			return vehicles[i].VIN < vehicles[j].VIN
		})
	}

	expected = append([]domain.VehicleSpec(nil), expected...)
	actual = append([]domain.VehicleSpec(nil), actual...)
	sortVehicles(expected)
	sortVehicles(actual)

	assert.Empty(t, cmp.Diff(expected, actual))
}
