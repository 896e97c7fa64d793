package sqlstore

import (
	"context"
	"fmt"

	"github.com/vietddude/legisync/internal/core/domain"
	"github.com/vietddude/legisync/internal/core/errs"
)

const upsertCategory = `
	INSERT INTO categories (code, name, description, icon)
	VALUES (:code, :name, :description, :icon)
	ON CONFLICT (code) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		icon = EXCLUDED.icon
`

// UpsertCategories seeds the category catalog.
func (s *Store) UpsertCategories(ctx context.Context, categories []domain.Category) (int64, error) {
	if len(categories) == 0 {
		return 0, nil
	}
	return s.db.inTx(ctx, "store.categories", len(categories), func(u *UnitOfWork) (int64, error) {
		return execEach(ctx, u, upsertCategory, categories)
	})
}

const upsertBillCategory = `
	INSERT INTO bill_categories (bill_id, category_code, origin, confidence)
	VALUES (:bill_id, :category_code, :origin, :confidence)
	ON CONFLICT (bill_id, category_code, origin) DO UPDATE SET
		confidence = EXCLUDED.confidence
`

// UpsertBillCategories inserts tags or updates their confidence.
func (s *Store) UpsertBillCategories(ctx context.Context, tags []domain.BillCategory) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	const op = "store.bill_categories"
	if err := checkTags(op, "", tags); err != nil {
		return 0, err
	}
	return s.db.inTx(ctx, op, len(tags), func(u *UnitOfWork) (int64, error) {
		return execEach(ctx, u, upsertBillCategory, tags)
	})
}

// DeleteByOrigin removes every tag with the given origin.
func (s *Store) DeleteByOrigin(ctx context.Context, origin domain.Origin) (int64, error) {
	const op = "store.delete_by_origin"
	if !origin.Valid() {
		return 0, errs.Validationf(op, "invalid origin %q", origin)
	}
	return s.db.inTx(ctx, op, 0, func(u *UnitOfWork) (int64, error) {
		return u.exec(ctx, "DELETE FROM bill_categories WHERE origin = ?", string(origin))
	})
}

// ReplaceOrigin deletes every tag with origin and inserts tags in one transaction.
func (s *Store) ReplaceOrigin(
	ctx context.Context,
	origin domain.Origin,
	tags []domain.BillCategory,
) (int64, int64, error) {
	const op = "store.replace_origin"
	if !origin.Valid() {
		return 0, 0, errs.Validationf(op, "invalid origin %q", origin)
	}
	if err := checkTags(op, origin, tags); err != nil {
		return 0, 0, err
	}

	var deleted int64
	inserted, err := s.db.inTx(ctx, op, len(tags), func(u *UnitOfWork) (int64, error) {
		n, err := u.exec(ctx, "DELETE FROM bill_categories WHERE origin = ?", string(origin))
		if err != nil {
			return 0, fmt.Errorf("delete %s tags: %w", origin, err)
		}
		deleted = n
		return execEach(ctx, u, upsertBillCategory, tags)
	})
	if err != nil {
		return 0, 0, err
	}
	return deleted, inserted, nil
}

// checkTags rejects tags with an invalid origin, a confidence outside [0,1] or,
// when want is set, an origin other than want.
func checkTags(op string, want domain.Origin, tags []domain.BillCategory) error {
	for i, t := range tags {
		if !t.Origin.Valid() {
			return errs.Validationf(op, "tag %d: invalid origin %q", i, t.Origin)
		}
		if want != "" && t.Origin != want {
			return errs.Validationf(op, "tag %d: origin %q, want %q", i, t.Origin, want)
		}
		if t.Confidence < 0 || t.Confidence > 1 {
			return errs.Validationf(op, "tag %d: confidence %v outside [0,1]", i, t.Confidence)
		}
	}
	return nil
}

// ListBillTexts returns every bill's classification input, ordered by ID.
func (s *Store) ListBillTexts(ctx context.Context) ([]domain.BillText, error) {
	var out []domain.BillText
	err := s.db.SelectContext(ctx, &out,
		"SELECT id, type_code, number, year, summary FROM bills ORDER BY id")
	if err != nil {
		return nil, classify("store.list_bill_texts", err)
	}
	return out, nil
}

// ListBillCategories returns a bill's tags ordered by category and origin.
func (s *Store) ListBillCategories(ctx context.Context, billID int64) ([]domain.BillCategory, error) {
	var out []domain.BillCategory
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`
		SELECT bill_id, category_code, origin, confidence
		FROM bill_categories
		WHERE bill_id = ?
		ORDER BY category_code, origin`), billID)
	if err != nil {
		return nil, classify("store.list_bill_categories", err)
	}
	return out, nil
}
