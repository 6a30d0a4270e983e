package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
)

func TestContributionState_Next(t *testing.T) {
	tests := []struct {
		from  ContributionState
		event ContributionEvent
		want  ContributionState
	}{
		{ContributionStateDraft, ContributionEventSubmit, ContributionStateAwaitingSave},
		{ContributionStateAwaitingSave, ContributionEventSave, ContributionStateConfiguring},
		{ContributionStateAwaitingSave, ContributionEventDiscard, ContributionStateDraft},
		{ContributionStateConfiguring, ContributionEventPublish, ContributionStatePublished},
		{ContributionStatePublished, ContributionEventReopen, ContributionStateConfiguring},
	}
	for _, tt := range tests {
		got, err := tt.from.Next(tt.event)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestContributionState_NextRejectsSkippingSteps(t *testing.T) {
	_, err := ContributionStateDraft.Next(ContributionEventPublish)
	assert.True(t, apperror.IsValidation(err))

	_, err = ContributionStatePublished.Next(ContributionEventSave)
	assert.True(t, apperror.IsValidation(err))
}

func TestProposalStatus_IsTerminal(t *testing.T) {
	assert.False(t, ProposalStatusPending.IsTerminal())
	assert.True(t, ProposalStatusAccepted.IsTerminal())
	assert.True(t, ProposalStatusRejected.IsTerminal())
}

func TestNewValuationPayload_Normalizes(t *testing.T) {
	p, err := NewValuationPayload("", 100, " usd ")
	require.NoError(t, err)

	assert.Equal(t, TermKindValuation, p.Kind)
	assert.Equal(t, ValuationTypeFixed, p.Valuation.Type)
	assert.Equal(t, "USD", p.Valuation.Currency)
}

func TestNewValuationPayload_Invalid(t *testing.T) {
	_, err := NewValuationPayload(ValuationTypeFixed, -1, "USD")
	assert.True(t, apperror.IsValidation(err))

	_, err = NewValuationPayload(ValuationTypePercentage, 120, "USD")
	assert.True(t, apperror.IsValidation(err))

	_, err = NewValuationPayload("barter", 10, "USD")
	assert.True(t, apperror.IsValidation(err))
}

func TestNewSubtypeSetPayload_DeduplicatesAndSorts(t *testing.T) {
	p, err := NewSubtypeSetPayload("seo", "ads", "seo ")
	require.NoError(t, err)
	assert.Equal(t, []string{"ads", "seo"}, p.SubtypeSet.Subtypes)

	_, err = NewSubtypeSetPayload()
	assert.True(t, apperror.IsValidation(err))
}

func TestTermPayload_RejectsMismatchedVariant(t *testing.T) {
	p := TermPayload{Kind: TermKindCustom, Valuation: &ValuationTerms{Amount: 1, Currency: "USD"}}
	assert.True(t, apperror.IsValidation(p.Normalize()))

	p = TermPayload{
		Kind:      TermKindValuation,
		Valuation: &ValuationTerms{Amount: 1, Currency: "USD"},
		Custom:    &CustomTerms{Label: "a", Value: "b"},
	}
	assert.True(t, apperror.IsValidation(p.Normalize()))

	p = TermPayload{Kind: "barter", Custom: &CustomTerms{Label: "a", Value: "b"}}
	assert.True(t, apperror.IsValidation(p.Normalize()))
}

func TestTermPayload_JSONShape(t *testing.T) {
	var p TermPayload
	raw := `{"kind":"custom","custom":{"label":"exclusivity","value":"12 months"}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	require.NoError(t, p.Normalize())

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestNewMessageType_DefaultsToText(t *testing.T) {
	mt, err := NewMessageType("")
	require.NoError(t, err)
	assert.Equal(t, MessageTypeText, mt)
	assert.True(t, MessageTypeCallRecording.RequiresFile())

	_, err = NewMessageType("sticker")
	assert.True(t, apperror.IsValidation(err))
}

func TestNewMoney_AmountScale(t *testing.T) {
	m, err := NewMoney(125.1234, "usd")
	require.NoError(t, err)
	assert.Equal(t, 125.1234, m.Amount)
	assert.Equal(t, "USD", m.Currency)

	_, err = NewMoney(0.1+0.2, "USD")
	require.NoError(t, err)

	_, err = NewMoney(125.12345, "USD")
	assert.True(t, apperror.IsValidation(err))
}

func TestValuationPayload_RejectsExcessPrecision(t *testing.T) {
	_, err := NewValuationPayload(ValuationTypeFixed, 99.99999, "USD")
	assert.True(t, apperror.IsValidation(err))
}
