package contribution_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/contribution"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/usecasetest"
)

type fixture struct {
	contributions *usecasetest.ContributionRepository
	sessions      *usecasetest.SessionRepository
	owner         uuid.UUID

	create     *contribution.CreateContributionUseCase
	get        *contribution.GetContributionUseCase
	transition *contribution.TransitionContributionUseCase
	configure  *contribution.ConfigureTermsUseCase
}

func newFixture() *fixture {
	f := &fixture{
		contributions: usecasetest.NewContributionRepository(),
		sessions:      usecasetest.NewSessionRepository(),
		owner:         uuid.New(),
	}
	f.create = contribution.NewCreateContributionUseCase(f.contributions)
	f.get = contribution.NewGetContributionUseCase(f.contributions, f.sessions)
	f.transition = contribution.NewTransitionContributionUseCase(f.contributions, f.sessions)
	f.configure = contribution.NewConfigureTermsUseCase(f.contributions)
	return f
}

func (f *fixture) step(t *testing.T, id uuid.UUID, event string) *entity.Contribution {
	t.Helper()
	c, err := f.transition.Execute(context.Background(), contribution.TransitionInput{ContributionID: id, OwnerID: f.owner, Event: event})
	require.NoError(t, err)
	return c
}

func TestContributionLifecycle(t *testing.T) {
	f := newFixture()
	c, err := f.create.Execute(context.Background(), contribution.CreateContributionInput{OwnerID: f.owner, Title: "Brand campaign", Kind: "marketing"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.ContributionStateDraft, c.State)

	f.step(t, c.ID, "submit")
	c = f.step(t, c.ID, "save")
	assert.Equal(t, valueobject.ContributionStateConfiguring, c.State)

	_, err = f.transition.Execute(context.Background(), contribution.TransitionInput{ContributionID: c.ID, OwnerID: f.owner, Event: "publish"})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.configure.Execute(context.Background(), f.owner, &entity.TermSet{
		ContributionID: c.ID,
		Valuations:     []entity.Valuation{{Direction: valueobject.DirectionToGive, Amount: 500, Currency: "eur"}},
		Insights:       []entity.Insight{{Title: "reach"}},
	})
	require.NoError(t, err)

	c = f.step(t, c.ID, "publish")
	assert.True(t, c.IsPublished())

	_, err = f.configure.Execute(context.Background(), f.owner, &entity.TermSet{ContributionID: c.ID})
	assert.True(t, apperror.IsStateConflict(err))

	view, err := f.get.Execute(context.Background(), c.ID, f.owner)
	require.NoError(t, err)
	require.Len(t, view.Terms.Valuations, 1)
	assert.Equal(t, "EUR", view.Terms.Valuations[0].Currency)
}

func TestTransition_UnknownEventAndForeignOwner(t *testing.T) {
	f := newFixture()
	c, err := f.create.Execute(context.Background(), contribution.CreateContributionInput{OwnerID: f.owner, Title: "Patent", Kind: "intellectual"})
	require.NoError(t, err)

	_, err = f.transition.Execute(context.Background(), contribution.TransitionInput{ContributionID: c.ID, OwnerID: f.owner, Event: "publish"})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.transition.Execute(context.Background(), contribution.TransitionInput{ContributionID: c.ID, OwnerID: uuid.New(), Event: "submit"})
	assert.True(t, apperror.IsForbidden(err))
}

func TestTransition_ReopenBlockedByOpenSession(t *testing.T) {
	f := newFixture()
	c := usecasetest.SeedPublished(f.contributions, f.owner)
	usecasetest.SeedSession(f.sessions, c.ID, f.owner, uuid.New(), valueobject.NegotiationModeFlexible)

	_, err := f.transition.Execute(context.Background(), contribution.TransitionInput{ContributionID: c.ID, OwnerID: f.owner, Event: "reopen"})
	assert.True(t, apperror.IsStateConflict(err))
}

func TestGetContribution_Access(t *testing.T) {
	f := newFixture()
	c := usecasetest.SeedPublished(f.contributions, f.owner)
	receiver := uuid.New()

	_, err := f.get.Execute(context.Background(), c.ID, receiver)
	assert.True(t, apperror.IsForbidden(err))

	usecasetest.SeedSession(f.sessions, c.ID, f.owner, receiver, valueobject.NegotiationModeStrict)
	view, err := f.get.Execute(context.Background(), c.ID, receiver)
	require.NoError(t, err)
	assert.Equal(t, c.ID, view.Contribution.ID)
}
