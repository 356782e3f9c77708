// Package domain provides typed identifiers shared across the module.
//
// Each entity gets its own UUID-backed type so the compiler rejects
// cross-entity assignment (a QuoteID can never be passed where a LotID is
// expected). ParseXxxID functions enforce validity at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "gare/pkg/domain-errors"
)

// Typed identifiers. Distinct types, not aliases.
type (
	TenderID        uuid.UUID
	LotID           uuid.UUID
	QuoteID         uuid.UUID
	ParticipantID   uuid.UUID
	ClarificationID uuid.UUID
	SubjectID       uuid.UUID
)

// OperatorID is the acting user identity supplied by the identity provider.
// It is treated as an opaque string for audit fields.
type OperatorID string

func (id OperatorID) IsEmpty() bool { return id == "" }

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

// ParseTenderID validates and returns a TenderID.
func ParseTenderID(s string) (TenderID, error) {
	u, err := parseUUID(s)
	return TenderID(u), err
}

// ParseLotID validates and returns a LotID.
func ParseLotID(s string) (LotID, error) {
	u, err := parseUUID(s)
	return LotID(u), err
}

// ParseQuoteID validates and returns a QuoteID.
func ParseQuoteID(s string) (QuoteID, error) {
	u, err := parseUUID(s)
	return QuoteID(u), err
}

// ParseParticipantID validates and returns a ParticipantID.
func ParseParticipantID(s string) (ParticipantID, error) {
	u, err := parseUUID(s)
	return ParticipantID(u), err
}

// ParseClarificationID validates and returns a ClarificationID.
func ParseClarificationID(s string) (ClarificationID, error) {
	u, err := parseUUID(s)
	return ClarificationID(u), err
}

// ParseSubjectID validates and returns a SubjectID.
func ParseSubjectID(s string) (SubjectID, error) {
	u, err := parseUUID(s)
	return SubjectID(u), err
}

func (id TenderID) String() string        { return uuid.UUID(id).String() }
func (id LotID) String() string           { return uuid.UUID(id).String() }
func (id QuoteID) String() string         { return uuid.UUID(id).String() }
func (id ParticipantID) String() string   { return uuid.UUID(id).String() }
func (id ClarificationID) String() string { return uuid.UUID(id).String() }
func (id SubjectID) String() string       { return uuid.UUID(id).String() }

func (id TenderID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id LotID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id QuoteID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ParticipantID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ClarificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SubjectID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// NewTenderID returns a fresh random TenderID.
func NewTenderID() TenderID { return TenderID(uuid.New()) }

// NewLotID returns a fresh random LotID.
func NewLotID() LotID { return LotID(uuid.New()) }

// NewQuoteID returns a fresh random QuoteID.
func NewQuoteID() QuoteID { return QuoteID(uuid.New()) }

// NewParticipantID returns a fresh random ParticipantID.
func NewParticipantID() ParticipantID { return ParticipantID(uuid.New()) }

// NewClarificationID returns a fresh random ClarificationID.
func NewClarificationID() ClarificationID { return ClarificationID(uuid.New()) }

// NewSubjectID returns a fresh random SubjectID.
func NewSubjectID() SubjectID { return SubjectID(uuid.New()) }
