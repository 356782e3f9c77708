package models

import (
	"strings"
	"time"

	id "gare/pkg/domain"
	dErrors "gare/pkg/domain-errors"
)

// BidderKind tags the two mutually exclusive bidder reference variants.
type BidderKind string

const (
	BidderKnownSubject BidderKind = "known_subject"
	BidderFreeText     BidderKind = "free_text"
)

// Bidder references either a known supplier subject or a free-text company
// name. Exactly one variant is set, enforced at construction; invalid
// combinations are unrepresentable to callers.
type Bidder struct {
	kind        BidderKind
	subjectID   id.SubjectID
	companyName string
}

// KnownSubjectBidder constructs a bidder referencing a registered subject.
func KnownSubjectBidder(subjectID id.SubjectID) (Bidder, error) {
	if subjectID.IsNil() {
		return Bidder{}, dErrors.New(dErrors.CodeValidation, "subject id is required for a known-subject bidder")
	}
	return Bidder{kind: BidderKnownSubject, subjectID: subjectID}, nil
}

// FreeTextBidder constructs a bidder carrying only a company name.
func FreeTextBidder(companyName string) (Bidder, error) {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return Bidder{}, dErrors.New(dErrors.CodeValidation, "company name is required for a free-text bidder")
	}
	return Bidder{kind: BidderFreeText, companyName: companyName}, nil
}

func (b Bidder) Kind() BidderKind { return b.kind }

// SubjectID returns the referenced subject, valid only for known-subject bidders.
func (b Bidder) SubjectID() (id.SubjectID, bool) {
	return b.subjectID, b.kind == BidderKnownSubject
}

// CompanyName returns the free-text name, valid only for free-text bidders.
func (b Bidder) CompanyName() (string, bool) {
	return b.companyName, b.kind == BidderFreeText
}

// DisplayName returns a printable name for either variant.
func (b Bidder) DisplayName() string {
	if b.kind == BidderFreeText {
		return b.companyName
	}
	return b.subjectID.String()
}

// IsZero reports whether the bidder was never constructed.
func (b Bidder) IsZero() bool { return b.kind == "" }

// Participant is a bidder recorded against a lot.
//
// Invariants:
//   - IsAwardee and IsRejectedByAuthority are mutually exclusive
//   - at most one non-deleted participant per lot has IsAwardee = true
//     (cross-entity half enforced by the service SetAwardee operation)
type Participant struct {
	ID                    id.ParticipantID `json:"id"`
	LotID                 id.LotID         `json:"lot_id"`
	Bidder                Bidder           `json:"-"`
	IsAwardee             bool             `json:"is_awardee"`
	IsRejectedByAuthority bool             `json:"is_rejected_by_authority"`
	Version               int64            `json:"version"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
	SoftDelete
}

// NewParticipant constructs a participant for a lot.
func NewParticipant(participantID id.ParticipantID, lotID id.LotID, bidder Bidder, now time.Time) (*Participant, error) {
	if lotID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "participant must belong to a lot")
	}
	if bidder.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "participant requires a bidder reference")
	}
	return &Participant{
		ID:        participantID,
		LotID:     lotID,
		Bidder:    bidder,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanAward checks the target side of the single-awardee rule.
func (p *Participant) CanAward() error {
	if p.IsRejectedByAuthority {
		return dErrors.New(dErrors.CodeInvalidParticipantState, "participant was rejected by the authority and cannot be awarded")
	}
	return nil
}

// ApplyAward flags the participant as the awardee. Call CanAward first; the
// service clears the flag from siblings in the same operation.
func (p *Participant) ApplyAward(now time.Time) {
	p.IsAwardee = true
	p.UpdatedAt = now
}

// ClearAward removes the awardee flag.
func (p *Participant) ClearAward(now time.Time) {
	p.IsAwardee = false
	p.UpdatedAt = now
}

// CanRejectByAuthority checks the mutual-exclusion invariant.
func (p *Participant) CanRejectByAuthority() error {
	if p.IsAwardee {
		return dErrors.New(dErrors.CodeInvalidParticipantState, "awardee cannot be rejected by the authority; clear the award first")
	}
	return nil
}

// ApplyAuthorityRejection flags the participant rejected by the contracting
// authority. Call CanRejectByAuthority first.
func (p *Participant) ApplyAuthorityRejection(now time.Time) {
	p.IsRejectedByAuthority = true
	p.UpdatedAt = now
}
