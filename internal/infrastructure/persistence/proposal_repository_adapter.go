package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

const proposalColumns = `id, session_id, proposer_id, kind, payload, message, status, version,
	decided_by, decided_at, created_at, updated_at`

type ProposalRepositoryAdapter struct {
	db *sqlx.DB
}

func NewProposalRepositoryAdapter(db *sqlx.DB) *ProposalRepositoryAdapter {
	return &ProposalRepositoryAdapter{db: db}
}

func (r *ProposalRepositoryAdapter) Create(ctx context.Context, p *entity.Proposal, event *entity.ProposalEvent) error {
	payload, err := json.Marshal(p.Payload)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать условия предложения")
	}

	err = WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`
			INSERT INTO proposals (` + proposalColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if _, err := tx.ExecContext(ctx, query,
			p.ID, p.SessionID, p.ProposerID, string(p.Payload.Kind), string(payload), p.Message,
			string(p.Status), p.Version, p.DecidedBy, utcPtr(p.DecidedAt), p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
		); err != nil {
			return err
		}
		return insertProposalEvent(ctx, tx, event)
	})
	return storeErr(err, nil, "не удалось создать предложение")
}

// Transition - условная запись: строка обновляется, только если версия и
// статус не изменились с момента чтения. Первый терминальный переход выигрывает.
func (r *ProposalRepositoryAdapter) Transition(ctx context.Context, p *entity.Proposal, expectedVersion int, event *entity.ProposalEvent, closing *entity.NegotiationSession) ([]*entity.Proposal, error) {
	var superseded []*entity.Proposal
	err := WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := updateProposalStatus(ctx, tx, p, expectedVersion); err != nil {
			return err
		}
		if err := insertProposalEvent(ctx, tx, event); err != nil {
			return err
		}
		if closing == nil {
			return nil
		}
		if err := closeSession(ctx, tx, closing); err != nil {
			return err
		}

		var err error
		superseded, err = supersedePending(ctx, tx, closing.ID, p.ID, event.ActorID)
		return err
	})
	if err != nil {
		return nil, storeErr(err, apperror.ErrProposalNotFound, "не удалось обновить предложение")
	}
	return superseded, nil
}

func updateProposalStatus(ctx context.Context, tx *sqlx.Tx, p *entity.Proposal, expectedVersion int) error {
	query := tx.Rebind(`
		UPDATE proposals SET status = ?, version = ?, decided_by = ?, decided_at = ?, updated_at = ?
		WHERE id = ? AND version = ? AND status = ?
	`)
	res, err := tx.ExecContext(ctx, query,
		string(p.Status), p.Version, p.DecidedBy, utcPtr(p.DecidedAt), p.UpdatedAt.UTC(),
		p.ID, expectedVersion, string(valueobject.ProposalStatusPending),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT 1 FROM proposals WHERE id = ?`), p.ID); err != nil {
		return err
	}
	return apperror.ErrStaleVersion
}

// supersedePending отклоняет оставшиеся ожидающие предложения закрытой сессии.
func supersedePending(ctx context.Context, tx *sqlx.Tx, sessionID, acceptedID, actorID uuid.UUID) ([]*entity.Proposal, error) {
	var rows []proposalRow
	query := tx.Rebind(`SELECT ` + proposalColumns + ` FROM proposals
		WHERE session_id = ? AND status = ? AND id <> ? ORDER BY created_at ASC, id ASC`)
	if err := tx.SelectContext(ctx, &rows, query, sessionID, string(valueobject.ProposalStatusPending), acceptedID); err != nil {
		return nil, err
	}

	result := make([]*entity.Proposal, 0, len(rows))
	for i := range rows {
		sibling, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		expected := sibling.Version
		event := sibling.Supersede(actorID)
		if event == nil {
			continue
		}
		if err := updateProposalStatus(ctx, tx, sibling, expected); err != nil {
			return nil, err
		}
		if err := insertProposalEvent(ctx, tx, event); err != nil {
			return nil, err
		}
		result = append(result, sibling)
	}
	return result, nil
}

func (r *ProposalRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Proposal, error) {
	var row proposalRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+proposalColumns+` FROM proposals WHERE id = ?`), id); err != nil {
		return nil, storeErr(err, apperror.ErrProposalNotFound, "не удалось получить предложение")
	}
	return row.toEntity()
}

func (r *ProposalRepositoryAdapter) FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*entity.Proposal, error) {
	var rows []proposalRow
	query := r.db.Rebind(`SELECT ` + proposalColumns + ` FROM proposals WHERE session_id = ? ORDER BY created_at ASC, id ASC`)
	if err := r.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, storeErr(err, nil, "не удалось получить предложения")
	}

	result := make([]*entity.Proposal, len(rows))
	for i := range rows {
		p, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (r *ProposalRepositoryAdapter) FindEvents(ctx context.Context, proposalID uuid.UUID) ([]*entity.ProposalEvent, error) {
	var rows []proposalEventRow
	query := r.db.Rebind(`
		SELECT id, proposal_id, from_status, to_status, actor_id, version, created_at
		FROM proposal_events WHERE proposal_id = ? ORDER BY version ASC, created_at ASC
	`)
	if err := r.db.SelectContext(ctx, &rows, query, proposalID); err != nil {
		return nil, storeErr(err, nil, "не удалось получить историю предложения")
	}

	result := make([]*entity.ProposalEvent, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

func insertProposalEvent(ctx context.Context, tx *sqlx.Tx, e *entity.ProposalEvent) error {
	var from *string
	if e.FromStatus != nil {
		s := string(*e.FromStatus)
		from = &s
	}
	query := tx.Rebind(`
		INSERT INTO proposal_events (id, proposal_id, from_status, to_status, actor_id, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := tx.ExecContext(ctx, query, e.ID, e.ProposalID, from, string(e.ToStatus), e.ActorID, e.Version, e.CreatedAt.UTC())
	return err
}

type proposalRow struct {
	ID         uuid.UUID  `db:"id"`
	SessionID  uuid.UUID  `db:"session_id"`
	ProposerID uuid.UUID  `db:"proposer_id"`
	Kind       string     `db:"kind"`
	Payload    string     `db:"payload"`
	Message    *string    `db:"message"`
	Status     string     `db:"status"`
	Version    int        `db:"version"`
	DecidedBy  *uuid.UUID `db:"decided_by"`
	DecidedAt  *time.Time `db:"decided_at"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

func (p *proposalRow) toEntity() (*entity.Proposal, error) {
	var payload valueobject.TermPayload
	if err := json.Unmarshal([]byte(p.Payload), &payload); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "повреждены условия предложения")
	}
	return &entity.Proposal{
		ID:         p.ID,
		SessionID:  p.SessionID,
		ProposerID: p.ProposerID,
		Payload:    payload,
		Message:    p.Message,
		Status:     valueobject.ProposalStatus(p.Status),
		Version:    p.Version,
		DecidedBy:  p.DecidedBy,
		DecidedAt:  p.DecidedAt,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}, nil
}

type proposalEventRow struct {
	ID         uuid.UUID `db:"id"`
	ProposalID uuid.UUID `db:"proposal_id"`
	FromStatus *string   `db:"from_status"`
	ToStatus   string    `db:"to_status"`
	ActorID    uuid.UUID `db:"actor_id"`
	Version    int       `db:"version"`
	CreatedAt  time.Time `db:"created_at"`
}

func (e *proposalEventRow) toEntity() *entity.ProposalEvent {
	event := &entity.ProposalEvent{
		ID:         e.ID,
		ProposalID: e.ProposalID,
		ToStatus:   valueobject.ProposalStatus(e.ToStatus),
		ActorID:    e.ActorID,
		Version:    e.Version,
		CreatedAt:  e.CreatedAt,
	}
	if e.FromStatus != nil {
		from := valueobject.ProposalStatus(*e.FromStatus)
		event.FromStatus = &from
	}
	return event
}
