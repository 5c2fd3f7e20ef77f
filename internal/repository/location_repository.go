package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openhaul/orderflow/internal/domain"
	"github.com/openhaul/orderflow/internal/port"
	"github.com/samber/lo"
)

type locationRepository struct {
	pool *pgxpool.Pool
}

func NewLocation(pool *pgxpool.Pool) (port.LocationStore, error) {
	if pool == nil {
		return nil, errors.New("pool is nil")
	}

	return &locationRepository{pool: pool}, nil
}

const locationColumns = `id, business_name, location_type, zip, address, city, state,
	contact_name, contact_type, contact_phone, contact_second_phone,
	lat, lng, is_terminal, is_default_terminal, created_by, created_at`

type locationRow struct {
	ID                 int64      `db:"id"`
	BusinessName       *string    `db:"business_name"`
	LocationType       *string    `db:"location_type"`
	Zip                *string    `db:"zip"`
	Address            *string    `db:"address"`
	City               *string    `db:"city"`
	State              *string    `db:"state"`
	ContactName        *string    `db:"contact_name"`
	ContactType        *string    `db:"contact_type"`
	ContactPhone       *string    `db:"contact_phone"`
	ContactSecondPhone *string    `db:"contact_second_phone"`
	Lat                *float64   `db:"lat"`
	Lng                *float64   `db:"lng"`
	IsTerminal         bool       `db:"is_terminal"`
	IsDefaultTerminal  bool       `db:"is_default_terminal"`
	CreatedBy          *string    `db:"created_by"`
	CreatedAt          *time.Time `db:"created_at"`
}

func (r *locationRepository) InsertLocation(ctx context.Context, attrs domain.LocationAttrs) (int64, error) {
	var id int64

	err := r.pool.QueryRow(ctx,
		`INSERT INTO order_locations (business_name, location_type, zip, address, city, state,
			contact_name, contact_type, contact_phone, contact_second_phone,
			lat, lng, is_terminal, is_default_terminal, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id`,
		emptyAsNil(attrs.BusinessName), emptyAsNil(attrs.LocationType), emptyAsNil(attrs.Zip),
		emptyAsNil(attrs.Address), emptyAsNil(attrs.City), emptyAsNil(attrs.State),
		emptyAsNil(attrs.ContactName), emptyAsNil(attrs.ContactType), emptyAsNil(attrs.ContactPhone),
		emptyAsNil(attrs.ContactSecondPhone),
		attrs.Lat, attrs.Lng, attrs.IsTerminal, attrs.IsDefaultTerminal,
		emptyAsNil(attrs.CreatedBy),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("pool.QueryRow: %w", err)
	}

	return id, nil
}

func (r *locationRepository) ListLocations(ctx context.Context) ([]domain.Location, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+locationColumns+` FROM order_locations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}

	return collectLocations(rows)
}

func (r *locationRepository) ListTerminals(ctx context.Context, createdBy string) ([]domain.Location, error) {
	if createdBy == "" {
		return nil, errors.New("createdBy is empty")
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+locationColumns+` FROM order_locations
		 WHERE created_by = $1 AND is_terminal ORDER BY id`, createdBy)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}

	return collectLocations(rows)
}

func collectLocations(rows pgx.Rows) ([]domain.Location, error) {
	locationRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[locationRow])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}

	locations := make([]domain.Location, 0, len(locationRows))
	for _, row := range locationRows {
		locations = append(locations, mapLocationRowToDomain(row))
	}

	return locations, nil
}

func mapLocationRowToDomain(row locationRow) domain.Location {
	return domain.Location{
		ID: row.ID,
		LocationAttrs: domain.LocationAttrs{
			BusinessName:       lo.FromPtr(row.BusinessName),
			LocationType:       lo.FromPtr(row.LocationType),
			Zip:                lo.FromPtr(row.Zip),
			Address:            lo.FromPtr(row.Address),
			City:               lo.FromPtr(row.City),
			State:              lo.FromPtr(row.State),
			ContactName:        lo.FromPtr(row.ContactName),
			ContactType:        lo.FromPtr(row.ContactType),
			ContactPhone:       lo.FromPtr(row.ContactPhone),
			ContactSecondPhone: lo.FromPtr(row.ContactSecondPhone),
			Lat:                row.Lat,
			Lng:                row.Lng,
			IsTerminal:         row.IsTerminal,
			IsDefaultTerminal:  row.IsDefaultTerminal,
			CreatedBy:          lo.FromPtr(row.CreatedBy),
		},
	}
}

func emptyAsNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
