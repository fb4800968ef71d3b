// Package repository is the ledger: gorm-backed access to purchases, licenses,
// products, profiles and audit logs.
package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/conefivem/hub/internal/utils"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateLicense = errors.New("duplicate license")
)

// conn picks the caller's transaction when one is given.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation covers drivers with and without gorm error translation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}

func paginate(q *gorm.DB, params utils.PaginationParams, sortable []string) *gorm.DB {
	return utils.ApplyPagination(utils.ApplySort(q, params, sortable), params)
}
