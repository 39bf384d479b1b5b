package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blindtest/model"

	"gorm.io/gorm"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ErrInvalidSort is returned for sort keys outside the whitelist.
var ErrInvalidSort = errors.New("invalid sort field")

// sortable maps the public sort keys to columns.
var sortable = map[string]string{
	"id":      "id",
	"name":    "name",
	"type":    "type",
	"created": "created",
	"updated": "updated",
}

// ListOptions pages and orders a listing.
type ListOptions struct {
	Limit  int
	Offset int
	// Sort is a field name, optionally prefixed with "-" for descending.
	Sort string
}

// Normalize clamps paging values into range.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// OrderClause turns a sort key into an ORDER BY clause.
func OrderClause(sort string) (string, error) {
	if sort == "" {
		return "id asc", nil
	}
	dir := "asc"
	if strings.HasPrefix(sort, "-") {
		dir = "desc"
		sort = sort[1:]
	}
	column, ok := sortable[sort]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSort, sort)
	}
	return column + " " + dir, nil
}

// BlindtestRepository stores blindtest definitions.
type BlindtestRepository interface {
	List(ctx context.Context, opts ListOptions) ([]model.Blindtest, int64, error)
	Create(ctx context.Context, b *model.Blindtest) error
	// GetByID returns nil, nil when the row does not exist.
	GetByID(ctx context.Context, id uint) (*model.Blindtest, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id uint) (bool, error)
}

type gormBlindtestRepository struct {
	db *gorm.DB
}

// NewGormBlindtestRepository creates a GORM backed repository.
func NewGormBlindtestRepository(db *gorm.DB) BlindtestRepository {
	return &gormBlindtestRepository{db: db}
}

func (r *gormBlindtestRepository) List(ctx context.Context, opts ListOptions) ([]model.Blindtest, int64, error) {
	opts = opts.Normalize()
	order, err := OrderClause(opts.Sort)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Blindtest{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.Blindtest
	err = r.db.WithContext(ctx).
		Order(order).
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *gormBlindtestRepository) Create(ctx context.Context, b *model.Blindtest) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *gormBlindtestRepository) GetByID(ctx context.Context, id uint) (*model.Blindtest, error) {
	var b model.Blindtest
	err := r.db.WithContext(ctx).First(&b, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *gormBlindtestRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Blindtest{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
