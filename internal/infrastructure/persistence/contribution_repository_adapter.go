package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

// Значения item_type в contribution_terms.
const (
	termSubtype   = "subtype"
	termValuation = "valuation"
	termInsight   = "insight"
	termFollowUp  = "followup"
	termSmartRule = "smart_rule"
	termFile      = "file"
)

type ContributionRepositoryAdapter struct {
	db *sqlx.DB
}

func NewContributionRepositoryAdapter(db *sqlx.DB) *ContributionRepositoryAdapter {
	return &ContributionRepositoryAdapter{db: db}
}

func (r *ContributionRepositoryAdapter) Create(ctx context.Context, c *entity.Contribution) error {
	query := r.db.Rebind(`
		INSERT INTO contributions (id, owner_id, title, kind, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.OwnerID, c.Title, string(c.Kind), string(c.State), c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	return storeErr(err, nil, "не удалось создать вклад")
}

func (r *ContributionRepositoryAdapter) Update(ctx context.Context, c *entity.Contribution) error {
	query := r.db.Rebind(`
		UPDATE contributions SET title = ?, kind = ?, state = ?, updated_at = ?
		WHERE id = ?
	`)
	res, err := r.db.ExecContext(ctx, query, c.Title, string(c.Kind), string(c.State), c.UpdatedAt.UTC(), c.ID)
	if err != nil {
		return storeErr(err, nil, "не удалось обновить вклад")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.ErrContributionNotFound
	}
	return nil
}

func (r *ContributionRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Contribution, error) {
	var row contributionRow
	query := r.db.Rebind(`
		SELECT id, owner_id, title, kind, state, created_at, updated_at
		FROM contributions WHERE id = ?
	`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, storeErr(err, apperror.ErrContributionNotFound, "не удалось получить вклад")
	}
	return row.toEntity(), nil
}

// LoadTerms читает все коллекции в одной транзакции, чтобы снимок был согласованным.
func (r *ContributionRepositoryAdapter) LoadTerms(ctx context.Context, contributionID uuid.UUID) (*entity.TermSet, error) {
	var rows []termRow
	err := WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := ensureContribution(ctx, tx, contributionID); err != nil {
			return err
		}
		query := tx.Rebind(`
			SELECT id, contribution_id, item_type, position, direction, title, body,
			valuation_type, amount, currency, url, occurs_at
			FROM contribution_terms WHERE contribution_id = ?
			ORDER BY item_type, position
		`)
		return tx.SelectContext(ctx, &rows, query, contributionID)
	})
	if err != nil {
		return nil, storeErr(err, apperror.ErrContributionNotFound, "хранилище условий недоступно")
	}
	return toTermSet(contributionID, rows), nil
}

// ReplaceTerms заменяет набор условий целиком.
func (r *ContributionRepositoryAdapter) ReplaceTerms(ctx context.Context, terms *entity.TermSet) error {
	err := WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := ensureContribution(ctx, tx, terms.ContributionID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM contribution_terms WHERE contribution_id = ?`), terms.ContributionID); err != nil {
			return err
		}

		inserter := NewBatchInserter(tx, `
			INSERT INTO contribution_terms (id, contribution_id, item_type, position, direction, title, body,
			valuation_type, amount, currency, url, occurs_at)`, 12, 100)
		for _, row := range fromTermSet(terms) {
			if err := inserter.Add(ctx, row.ID, row.ContributionID, row.ItemType, row.Position, row.Direction,
				row.Title, row.Body, row.ValuationType, row.Amount, row.Currency, row.URL, row.OccursAt); err != nil {
				return err
			}
		}
		if err := inserter.Flush(ctx); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE contributions SET updated_at = ? WHERE id = ?`), time.Now().UTC(), terms.ContributionID)
		return err
	})
	return storeErr(err, apperror.ErrContributionNotFound, "хранилище условий недоступно")
}

func ensureContribution(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	var exists int
	return tx.GetContext(ctx, &exists, tx.Rebind(`SELECT 1 FROM contributions WHERE id = ?`), id)
}

type contributionRow struct {
	ID        uuid.UUID `db:"id"`
	OwnerID   uuid.UUID `db:"owner_id"`
	Title     string    `db:"title"`
	Kind      string    `db:"kind"`
	State     string    `db:"state"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (c *contributionRow) toEntity() *entity.Contribution {
	return &entity.Contribution{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Title:     c.Title,
		Kind:      valueobject.ContributionKind(c.Kind),
		State:     valueobject.ContributionState(c.State),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type termRow struct {
	ID             uuid.UUID  `db:"id"`
	ContributionID uuid.UUID  `db:"contribution_id"`
	ItemType       string     `db:"item_type"`
	Position       int        `db:"position"`
	Direction      string     `db:"direction"`
	Title          string     `db:"title"`
	Body           string     `db:"body"`
	ValuationType  *string    `db:"valuation_type"`
	Amount         *float64   `db:"amount"`
	Currency       *string    `db:"currency"`
	URL            *string    `db:"url"`
	OccursAt       *time.Time `db:"occurs_at"`
}

func fromTermSet(ts *entity.TermSet) []termRow {
	var rows []termRow
	add := func(itemType string, id uuid.UUID, dir valueobject.Direction, position int, fill func(*termRow)) {
		row := termRow{ID: id, ContributionID: ts.ContributionID, ItemType: itemType, Position: position, Direction: string(dir)}
		fill(&row)
		rows = append(rows, row)
	}

	for i, v := range ts.Subtypes {
		add(termSubtype, v.ID, v.Direction, i, func(row *termRow) { row.Title = v.Name })
	}
	for i, v := range ts.Valuations {
		add(termValuation, v.ID, v.Direction, i, func(row *termRow) {
			valuationType, amount, currency := string(v.Type), v.Amount, v.Currency
			row.ValuationType, row.Amount, row.Currency = &valuationType, &amount, &currency
			row.OccursAt = utcPtr(v.EffectiveAt)
		})
	}
	for i, v := range ts.Insights {
		add(termInsight, v.ID, v.Direction, i, func(row *termRow) { row.Title, row.Body = v.Title, v.Body })
	}
	for i, v := range ts.FollowUps {
		add(termFollowUp, v.ID, v.Direction, i, func(row *termRow) {
			row.Title = v.Title
			row.OccursAt = utcPtr(v.DueAt)
		})
	}
	for i, v := range ts.SmartRules {
		add(termSmartRule, v.ID, v.Direction, i, func(row *termRow) { row.Title, row.Body = v.Condition, v.Action })
	}
	for i, v := range ts.Files {
		add(termFile, v.ID, v.Direction, i, func(row *termRow) {
			url := v.URL
			row.Title, row.URL = v.Name, &url
		})
	}
	return rows
}

func toTermSet(contributionID uuid.UUID, rows []termRow) *entity.TermSet {
	ts := &entity.TermSet{ContributionID: contributionID}
	for _, row := range rows {
		dir := valueobject.Direction(row.Direction)
		switch row.ItemType {
		case termSubtype:
			ts.Subtypes = append(ts.Subtypes, entity.Subtype{ID: row.ID, Direction: dir, Name: row.Title})
		case termValuation:
			v := entity.Valuation{ID: row.ID, Direction: dir, EffectiveAt: row.OccursAt}
			if row.ValuationType != nil {
				v.Type = valueobject.ValuationType(*row.ValuationType)
			}
			if row.Amount != nil {
				v.Amount = *row.Amount
			}
			if row.Currency != nil {
				v.Currency = *row.Currency
			}
			ts.Valuations = append(ts.Valuations, v)
		case termInsight:
			ts.Insights = append(ts.Insights, entity.Insight{ID: row.ID, Direction: dir, Title: row.Title, Body: row.Body})
		case termFollowUp:
			ts.FollowUps = append(ts.FollowUps, entity.FollowUp{ID: row.ID, Direction: dir, Title: row.Title, DueAt: row.OccursAt})
		case termSmartRule:
			ts.SmartRules = append(ts.SmartRules, entity.SmartRule{ID: row.ID, Direction: dir, Condition: row.Title, Action: row.Body})
		case termFile:
			f := entity.TermFile{ID: row.ID, Direction: dir, Name: row.Title}
			if row.URL != nil {
				f.URL = *row.URL
			}
			ts.Files = append(ts.Files, f)
		}
	}
	return ts
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
