package valueobject

import "github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"

type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusRejected ProposalStatus = "rejected"
)

func (s ProposalStatus) IsValid() bool {
	switch s {
	case ProposalStatusPending, ProposalStatusAccepted, ProposalStatusRejected:
		return true
	}
	return false
}

// IsTerminal: из accepted и rejected переходов нет.
func (s ProposalStatus) IsTerminal() bool {
	return s == ProposalStatusAccepted || s == ProposalStatusRejected
}

func NewProposalStatus(status string) (ProposalStatus, error) {
	s := ProposalStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус предложения")
	}
	return s, nil
}

type NegotiationMode string

const (
	NegotiationModeStrict   NegotiationMode = "strict"
	NegotiationModeFlexible NegotiationMode = "flexible"
)

func (m NegotiationMode) IsValid() bool {
	return m == NegotiationModeStrict || m == NegotiationModeFlexible
}

func NewNegotiationMode(mode string) (NegotiationMode, error) {
	m := NegotiationMode(mode)
	if !m.IsValid() {
		return "", apperror.Validation("режим переговоров должен быть strict или flexible")
	}
	return m, nil
}

type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "open"
	SessionStatusClosed SessionStatus = "closed"
)

// Decision - итог по условиям: принять или отклонить.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

func NewDecision(decision string) (Decision, error) {
	d := Decision(decision)
	if d != DecisionAccept && d != DecisionReject {
		return "", apperror.Validation("решение должно быть accept или reject")
	}
	return d, nil
}

// Outcome возвращает терминальный статус, соответствующий решению.
func (d Decision) Outcome() ProposalStatus {
	if d == DecisionAccept {
		return ProposalStatusAccepted
	}
	return ProposalStatusRejected
}

type Direction string

const (
	DirectionToGive    Direction = "to_give"
	DirectionToReceive Direction = "to_receive"
	// DirectionShared - термин без направления (инсайты, follow-up, правила, файлы).
	DirectionShared Direction = ""
)

func (d Direction) IsValid() bool {
	switch d {
	case DirectionToGive, DirectionToReceive, DirectionShared:
		return true
	}
	return false
}

// IsDirectional сообщает, что термин относится к конкретной стороне.
func (d Direction) IsDirectional() bool {
	return d == DirectionToGive || d == DirectionToReceive
}

type ContributionKind string

const (
	ContributionKindFinancial    ContributionKind = "financial"
	ContributionKindIntellectual ContributionKind = "intellectual"
	ContributionKindMarketing    ContributionKind = "marketing"
	ContributionKindAsset        ContributionKind = "asset"
)

func (k ContributionKind) IsValid() bool {
	switch k {
	case ContributionKindFinancial, ContributionKindIntellectual, ContributionKindMarketing, ContributionKindAsset:
		return true
	}
	return false
}

func NewContributionKind(kind string) (ContributionKind, error) {
	k := ContributionKind(kind)
	if !k.IsValid() {
		return "", apperror.Validation("некорректный тип вклада")
	}
	return k, nil
}

type MessageType string

const (
	MessageTypeText          MessageType = "text"
	MessageTypeFile          MessageType = "file"
	MessageTypeCallRecording MessageType = "call_recording"
)

func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeText, MessageTypeFile, MessageTypeCallRecording:
		return true
	}
	return false
}

// RequiresFile: файлы и записи звонков передаются ссылкой.
func (t MessageType) RequiresFile() bool {
	return t == MessageTypeFile || t == MessageTypeCallRecording
}

func NewMessageType(messageType string) (MessageType, error) {
	if messageType == "" {
		return MessageTypeText, nil
	}
	t := MessageType(messageType)
	if !t.IsValid() {
		return "", apperror.Validation("некорректный тип сообщения")
	}
	return t, nil
}
