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

const sessionColumns = `id, contribution_id, giver_user_id, receiver_user_id, mode, status,
	outcome, accepted_proposal_id, terms_applied_at, created_at, closed_at`

type SessionRepositoryAdapter struct {
	db *sqlx.DB
}

func NewSessionRepositoryAdapter(db *sqlx.DB) *SessionRepositoryAdapter {
	return &SessionRepositoryAdapter{db: db}
}

// CreateIfAbsent полагается на UNIQUE(contribution_id): из параллельных вставок
// проходит одна, остальные читают уже сохранённую строку.
func (r *SessionRepositoryAdapter) CreateIfAbsent(ctx context.Context, s *entity.NegotiationSession) (*entity.NegotiationSession, error) {
	query := r.db.Rebind(`
		INSERT INTO negotiation_sessions (id, contribution_id, giver_user_id, receiver_user_id, mode, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (contribution_id) DO NOTHING
	`)
	if _, err := r.db.ExecContext(ctx, query,
		s.ID, s.ContributionID, s.GiverUserID, s.ReceiverUserID, string(s.Mode), string(s.Status), s.CreatedAt.UTC(),
	); err != nil {
		return nil, storeErr(err, nil, "не удалось создать сессию переговоров")
	}

	var row sessionRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+sessionColumns+` FROM negotiation_sessions WHERE contribution_id = ?`), s.ContributionID); err != nil {
		return nil, storeErr(err, apperror.ErrSessionNotFound, "не удалось получить сессию переговоров")
	}
	return row.toEntity(), nil
}

func (r *SessionRepositoryAdapter) Close(ctx context.Context, s *entity.NegotiationSession) error {
	return storeErr(closeSession(ctx, r.db, s), apperror.ErrSessionNotFound, "не удалось закрыть сессию переговоров")
}

func (r *SessionRepositoryAdapter) MarkTermsApplied(ctx context.Context, s *entity.NegotiationSession) error {
	if s.TermsAppliedAt == nil {
		s.MarkTermsApplied()
	}
	query := r.db.Rebind(`UPDATE negotiation_sessions SET terms_applied_at = ? WHERE id = ? AND terms_applied_at IS NULL`)
	if _, err := r.db.ExecContext(ctx, query, s.TermsAppliedAt.UTC(), s.ID); err != nil {
		return storeErr(err, nil, "не удалось отметить запись условий")
	}
	return nil
}

func (r *SessionRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.NegotiationSession, error) {
	var row sessionRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+sessionColumns+` FROM negotiation_sessions WHERE id = ?`), id); err != nil {
		return nil, storeErr(err, apperror.ErrSessionNotFound, "не удалось получить сессию переговоров")
	}
	return row.toEntity(), nil
}

func (r *SessionRepositoryAdapter) FindByContributionID(ctx context.Context, contributionID uuid.UUID) ([]*entity.NegotiationSession, error) {
	var rows []sessionRow
	query := r.db.Rebind(`SELECT ` + sessionColumns + ` FROM negotiation_sessions WHERE contribution_id = ? ORDER BY created_at`)
	if err := r.db.SelectContext(ctx, &rows, query, contributionID); err != nil {
		return nil, storeErr(err, nil, "не удалось получить сессии переговоров")
	}
	result := make([]*entity.NegotiationSession, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

// closeSession записывает закрытие, только если сессия ещё открыта.
// Работает и на соединении, и внутри транзакции.
func closeSession(ctx context.Context, ext sqlx.ExtContext, s *entity.NegotiationSession) error {
	var outcome *string
	if s.Outcome != nil {
		o := string(*s.Outcome)
		outcome = &o
	}
	query := ext.Rebind(`
		UPDATE negotiation_sessions SET status = ?, outcome = ?, accepted_proposal_id = ?, closed_at = ?
		WHERE id = ? AND status = ?
	`)
	res, err := ext.ExecContext(ctx, query,
		string(s.Status), outcome, s.AcceptedProposalID, utcPtr(s.ClosedAt), s.ID, string(valueobject.SessionStatusOpen),
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
	if err := sqlx.GetContext(ctx, ext, &exists, ext.Rebind(`SELECT 1 FROM negotiation_sessions WHERE id = ?`), s.ID); err != nil {
		return err
	}
	return apperror.StateConflict("сессия переговоров уже закрыта")
}

type sessionRow struct {
	ID                 uuid.UUID  `db:"id"`
	ContributionID     uuid.UUID  `db:"contribution_id"`
	GiverUserID        uuid.UUID  `db:"giver_user_id"`
	ReceiverUserID     uuid.UUID  `db:"receiver_user_id"`
	Mode               string     `db:"mode"`
	Status             string     `db:"status"`
	Outcome            *string    `db:"outcome"`
	AcceptedProposalID *uuid.UUID `db:"accepted_proposal_id"`
	TermsAppliedAt     *time.Time `db:"terms_applied_at"`
	CreatedAt          time.Time  `db:"created_at"`
	ClosedAt           *time.Time `db:"closed_at"`
}

func (s *sessionRow) toEntity() *entity.NegotiationSession {
	session := &entity.NegotiationSession{
		ID:                 s.ID,
		ContributionID:     s.ContributionID,
		GiverUserID:        s.GiverUserID,
		ReceiverUserID:     s.ReceiverUserID,
		Mode:               valueobject.NegotiationMode(s.Mode),
		Status:             valueobject.SessionStatus(s.Status),
		AcceptedProposalID: s.AcceptedProposalID,
		TermsAppliedAt:     s.TermsAppliedAt,
		CreatedAt:          s.CreatedAt,
		ClosedAt:           s.ClosedAt,
	}
	if s.Outcome != nil {
		outcome := valueobject.ProposalStatus(*s.Outcome)
		session.Outcome = &outcome
	}
	return session
}
