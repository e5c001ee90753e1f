// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/canonical/marketplace-service/internal/db"
	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/tracing"
	"github.com/canonical/marketplace-service/internal/types"
)

var _ StorageInterface = (*Storage)(nil)

type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}

// ---------------------------------------------------------------- tenants

func (s *Storage) CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateTenant")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate tenant ID: %w", err)
	}

	var created types.Tenant
	err = s.db.Statement(ctx).
		Insert("tenants").
		Columns("id", "name", "tenant_type", "status", "prefecture", "city", "phone").
		Values(id.String(), t.Name, t.Type, t.Status, t.Prefecture, t.City, t.Phone).
		Suffix("RETURNING id, name, tenant_type, status, prefecture, city, phone, created_at").
		QueryRowContext(ctx).
		Scan(&created.ID, &created.Name, &created.Type, &created.Status, &created.Prefecture, &created.City, &created.Phone, &created.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to insert tenant: %w", err)
	}

	return &created, nil
}

func (s *Storage) GetTenantByID(ctx context.Context, id string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetTenantByID")
	defer span.End()

	var t types.Tenant
	err := s.db.Statement(ctx).
		Select("id", "name", "tenant_type", "status", "prefecture", "city", "phone", "created_at").
		From("tenants").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&t.ID, &t.Name, &t.Type, &t.Status, &t.Prefecture, &t.City, &t.Phone, &t.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &t, nil
}

func (s *Storage) ListTenants(ctx context.Context) ([]*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListTenants")
	defer span.End()

	query := s.db.Statement(ctx).
		Select("id", "name", "tenant_type", "status", "prefecture", "city", "phone", "created_at").
		From("tenants").
		OrderBy("created_at DESC")

	return s.scanTenants(ctx, query)
}

func (s *Storage) ListTenantsByIDs(ctx context.Context, ids []string) ([]*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListTenantsByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	query := s.db.Statement(ctx).
		Select("id", "name", "tenant_type", "status", "prefecture", "city", "phone", "created_at").
		From("tenants").
		Where(sq.Eq{"id": ids})

	return s.scanTenants(ctx, query)
}

func (s *Storage) scanTenants(ctx context.Context, query sq.SelectBuilder) ([]*types.Tenant, error) {
	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*types.Tenant
	for rows.Next() {
		var t types.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Type, &t.Status, &t.Prefecture, &t.City, &t.Phone, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return tenants, nil
}

func (s *Storage) SetTenantStatus(ctx context.Context, id string, status types.TenantStatus) error {
	ctx, span := s.tracer.Start(ctx, "storage.SetTenantStatus")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("tenants").
		Set("status", status).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update tenant status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) DeleteTenant(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteTenant")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Delete("tenants").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------- profiles

func (s *Storage) GetProfileByID(ctx context.Context, id string) (*types.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetProfileByID")
	defer span.End()

	var p types.Profile
	err := s.db.Statement(ctx).
		Select("id", "name", "role", "tenant_id", "is_active", "created_at").
		From("profiles").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&p.ID, &p.Name, &p.Role, &p.TenantID, &p.Active, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

// UpsertProfile inserts the profile, or updates it if a row for the subject
// already exists. Provisioning retries after a partial success rely on this
// being idempotent on the primary key.
func (s *Storage) UpsertProfile(ctx context.Context, p *types.Profile) (*types.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpsertProfile")
	defer span.End()

	var saved types.Profile
	err := s.db.Statement(ctx).
		Insert("profiles").
		Columns("id", "name", "role", "tenant_id", "is_active").
		Values(p.ID, p.Name, p.Role, p.TenantID, p.Active).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, tenant_id = EXCLUDED.tenant_id, is_active = EXCLUDED.is_active").
		Suffix("RETURNING id, name, role, tenant_id, is_active, created_at").
		QueryRowContext(ctx).
		Scan(&saved.ID, &saved.Name, &saved.Role, &saved.TenantID, &saved.Active, &saved.CreatedAt)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, ErrForeignKeyViolation
		}
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	return &saved, nil
}

func (s *Storage) UpdateProfileName(ctx context.Context, id, name string) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateProfileName")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("profiles").
		Set("name", name).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update profile name: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) SetProfileActive(ctx context.Context, id string, active bool) error {
	ctx, span := s.tracer.Start(ctx, "storage.SetProfileActive")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("profiles").
		Set("is_active", active).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update profile active flag: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) ListProfiles(ctx context.Context, limit uint64) ([]*types.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListProfiles")
	defer span.End()

	query := s.db.Statement(ctx).
		Select("id", "name", "role", "tenant_id", "is_active", "created_at").
		From("profiles").
		OrderBy("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*types.Profile
	for rows.Next() {
		var p types.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Role, &p.TenantID, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return profiles, nil
}

// ---------------------------------------------------------------- listings

func (s *Storage) CreateListing(ctx context.Context, l *types.Listing) (*types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateListing")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate listing ID: %w", err)
	}

	var created types.Listing
	err = s.db.Statement(ctx).
		Insert("listings").
		Columns("id", "owner_tenant_id", "category", "name", "manufacturer", "model", "location", "price_rental", "price_sale", "status").
		Values(id.String(), l.OwnerTenantID, l.Category, l.Name, l.Manufacturer, l.Model, l.Location, l.PriceRental, l.PriceSale, l.Status).
		Suffix("RETURNING id, owner_tenant_id, category, name, manufacturer, model, location, price_rental, price_sale, status, created_at, updated_at").
		QueryRowContext(ctx).
		Scan(&created.ID, &created.OwnerTenantID, &created.Category, &created.Name, &created.Manufacturer, &created.Model, &created.Location, &created.PriceRental, &created.PriceSale, &created.Status, &created.CreatedAt, &created.UpdatedAt)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, ErrForeignKeyViolation
		}
		return nil, fmt.Errorf("failed to insert listing: %w", err)
	}

	return &created, nil
}

func (s *Storage) GetListingByID(ctx context.Context, id string) (*types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetListingByID")
	defer span.End()

	var l types.Listing
	err := s.db.Statement(ctx).
		Select("id", "owner_tenant_id", "category", "name", "manufacturer", "model", "location", "price_rental", "price_sale", "status", "created_at", "updated_at").
		From("listings").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&l.ID, &l.OwnerTenantID, &l.Category, &l.Name, &l.Manufacturer, &l.Model, &l.Location, &l.PriceRental, &l.PriceSale, &l.Status, &l.CreatedAt, &l.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	return &l, nil
}

func (s *Storage) ListPublishedListings(ctx context.Context) ([]*types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListPublishedListings")
	defer span.End()

	query := s.db.Statement(ctx).
		Select("id", "owner_tenant_id", "category", "name", "manufacturer", "model", "location", "price_rental", "price_sale", "status", "created_at", "updated_at").
		From("listings").
		Where(sq.Eq{"status": types.ListingStatusPublished}).
		OrderBy("created_at DESC")

	return s.scanListings(ctx, query)
}

func (s *Storage) ListListingsByTenantID(ctx context.Context, tenantID string) ([]*types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListListingsByTenantID")
	defer span.End()

	query := s.db.Statement(ctx).
		Select("id", "owner_tenant_id", "category", "name", "manufacturer", "model", "location", "price_rental", "price_sale", "status", "created_at", "updated_at").
		From("listings").
		Where(sq.Eq{"owner_tenant_id": tenantID}).
		OrderBy("created_at DESC")

	return s.scanListings(ctx, query)
}

func (s *Storage) scanListings(ctx context.Context, query sq.SelectBuilder) ([]*types.Listing, error) {
	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	var listings []*types.Listing
	for rows.Next() {
		var l types.Listing
		if err := rows.Scan(&l.ID, &l.OwnerTenantID, &l.Category, &l.Name, &l.Manufacturer, &l.Model, &l.Location, &l.PriceRental, &l.PriceSale, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return listings, nil
}

func (s *Storage) SetListingStatus(ctx context.Context, id string, status types.ListingStatus) error {
	ctx, span := s.tracer.Start(ctx, "storage.SetListingStatus")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("listings").
		Set("status", status).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update listing status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateListing updates the fields named in paths, PATCH style. The owning
// tenant id is never an updatable field.
func (s *Storage) UpdateListing(ctx context.Context, l *types.Listing, paths []string) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateListing")
	defer span.End()

	if len(paths) == 0 {
		return nil
	}

	updateMap := make(map[string]interface{})
	for _, p := range paths {
		switch p {
		case "category":
			updateMap["category"] = l.Category
		case "name":
			updateMap["name"] = l.Name
		case "manufacturer":
			updateMap["manufacturer"] = l.Manufacturer
		case "model":
			updateMap["model"] = l.Model
		case "location":
			updateMap["location"] = l.Location
		case "price_rental":
			updateMap["price_rental"] = l.PriceRental
		case "price_sale":
			updateMap["price_sale"] = l.PriceSale
		}
	}

	if len(updateMap) == 0 {
		return nil
	}
	updateMap["updated_at"] = sq.Expr("now()")

	_, err := s.db.Statement(ctx).
		Update("listings").
		SetMap(updateMap).
		Where(sq.Eq{"id": l.ID}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}

	return nil
}

func (s *Storage) DeleteListing(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteListing")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("listings").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) CountPublishedListingsByTenant(ctx context.Context, tenantIDs []string) (map[string]int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountPublishedListingsByTenant")
	defer span.End()

	counts := make(map[string]int)
	if len(tenantIDs) == 0 {
		return counts, nil
	}

	rows, err := s.db.Statement(ctx).
		Select("owner_tenant_id", "COUNT(*)").
		From("listings").
		Where(sq.Eq{"owner_tenant_id": tenantIDs, "status": types.ListingStatusPublished}).
		GroupBy("owner_tenant_id").
		QueryContext(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tenantID string
		var count int
		if err := rows.Scan(&tenantID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan listing count: %w", err)
		}
		counts[tenantID] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return counts, nil
}
