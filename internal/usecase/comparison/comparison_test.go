package comparison_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/comparison"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/usecasetest"
)

func rowByLabel(t *testing.T, c *comparison.Comparison, label string) comparison.Row {
	t.Helper()
	for _, r := range c.Rows {
		if r.Label == label {
			return r
		}
	}
	t.Fatalf("row %q not found", label)
	return comparison.Row{}
}

func sampleTerms() *entity.TermSet {
	return &entity.TermSet{
		ContributionID: uuid.New(),
		Subtypes: []entity.Subtype{
			{Direction: valueobject.DirectionToGive, Name: "seed"},
			{Direction: valueobject.DirectionToGive, Name: "angel"},
			{Direction: valueobject.DirectionToReceive, Name: "angel"},
			{Direction: valueobject.DirectionToReceive, Name: "seed"},
		},
		Valuations: []entity.Valuation{
			{Direction: valueobject.DirectionToGive, Type: valueobject.ValuationTypeFixed, Amount: 100, Currency: "USD"},
			{Direction: valueobject.DirectionToReceive, Type: valueobject.ValuationTypeFixed, Amount: 150, Currency: "USD"},
		},
		Insights: []entity.Insight{
			{Direction: valueobject.DirectionToGive, Title: "market size"},
			{Direction: valueobject.DirectionShared, Title: "team"},
		},
	}
}

func TestBuild_RowsAndMatches(t *testing.T) {
	c := comparison.Build(sampleTerms(), comparison.PartitionShared)

	amount := rowByLabel(t, c, "valuation.amount")
	assert.Equal(t, 100.0, amount.GiverValue)
	assert.Equal(t, 150.0, amount.ReceiverValue)
	assert.False(t, amount.Matches)

	assert.True(t, rowByLabel(t, c, "valuation.currency").Matches)
	assert.True(t, rowByLabel(t, c, "subtypes").Matches)
	assert.True(t, rowByLabel(t, c, "insights").Matches)

	files := rowByLabel(t, c, "files")
	assert.Nil(t, files.GiverValue)
	assert.True(t, files.Matches)
	assert.Equal(t, comparison.NotSet, files.GiverDisplay())
}

func TestBuild_DirectionalPartition(t *testing.T) {
	c := comparison.Build(sampleTerms(), comparison.PartitionDirectional)

	insights := rowByLabel(t, c, "insights")
	assert.Equal(t, []string{"market size", "team"}, insights.GiverValue)
	assert.Equal(t, []string{"team"}, insights.ReceiverValue)
	assert.False(t, insights.Matches)
	assert.Equal(t, comparison.PartitionDirectional, c.Partition)
}

func TestBuild_MissingValuationIsNotSet(t *testing.T) {
	terms := sampleTerms()
	terms.Valuations = terms.Valuations[:1]

	row := rowByLabel(t, comparison.Build(terms, comparison.PartitionShared), "valuation.amount")
	assert.Nil(t, row.ReceiverValue)
	assert.Equal(t, comparison.NotSet, row.ReceiverDisplay())
	assert.Equal(t, "100.00", row.GiverDisplay())
	assert.False(t, row.Matches)
}

func TestBuild_IsPure(t *testing.T) {
	terms := sampleTerms()
	first := comparison.Build(terms, comparison.PartitionShared)
	second := comparison.Build(terms, comparison.PartitionShared)
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Giver, second.Giver)
}

func TestNewPartitionPolicy(t *testing.T) {
	p, err := comparison.NewPartitionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, comparison.PartitionShared, p)

	_, err = comparison.NewPartitionPolicy("both")
	assert.True(t, apperror.IsValidation(err))
}

func TestCompareUseCase(t *testing.T) {
	contributions := usecasetest.NewContributionRepository()
	sessions := usecasetest.NewSessionRepository()
	owner := uuid.New()
	c := usecasetest.SeedPublished(contributions, owner)
	uc := comparison.NewCompareUseCase(contributions, sessions, comparison.PartitionShared)

	result, err := uc.Execute(context.Background(), c.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, c.ID, result.ContributionID)
	assert.Len(t, result.Rows, 8)

	_, err = uc.Execute(context.Background(), c.ID, uuid.New())
	assert.True(t, apperror.IsForbidden(err))

	_, err = uc.Execute(context.Background(), uuid.New(), owner)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCompareUseCase_StoreUnavailable(t *testing.T) {
	contributions := usecasetest.NewContributionRepository()
	owner := uuid.New()
	c := usecasetest.SeedPublished(contributions, owner)
	contributions.TermsErr = apperror.Unavailable(errors.New("connection refused"), "хранилище условий недоступно")

	result, err := comparison.NewCompareUseCase(contributions, usecasetest.NewSessionRepository(), "").
		Execute(context.Background(), c.ID, owner)
	assert.Nil(t, result)
	assert.True(t, apperror.IsUnavailable(err))
}
