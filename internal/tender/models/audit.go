package models

import (
	"time"

	id "gare/pkg/domain"
)

// SoftDelete carries the deletion flag and audit fields shared by every
// record. Deleted records are excluded from default reads by an explicit
// predicate in each store read path, never by a hidden global filter.
type SoftDelete struct {
	Deleted   bool          `json:"deleted"`
	DeletedBy id.OperatorID `json:"deleted_by,omitempty"`
	DeletedAt *time.Time    `json:"deleted_at,omitempty"`
}

// MarkDeleted flags the record deleted and stamps the audit fields.
func (d *SoftDelete) MarkDeleted(actor id.OperatorID, now time.Time) {
	d.Deleted = true
	d.DeletedBy = actor
	d.DeletedAt = &now
}
