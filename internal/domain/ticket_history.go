package domain

import "time"

// ActorType indicates who performed a change.
type ActorType string

const (
	ActorTypeUser   ActorType = "USER"
	ActorTypeStaff  ActorType = "STAFF"
	ActorTypeSystem ActorType = "SYSTEM"
)

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeCategorization   TicketChangeType = "CATEGORIZATION"
	ChangeTypeCategoryOverride TicketChangeType = "CATEGORY_OVERRIDE"
	ChangeTypeStatus           TicketChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee         TicketChangeType = "ASSIGNEE_CHANGE"
	ChangeTypePriority         TicketChangeType = "PRIORITY_CHANGE"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID            string
	TicketID      string
	ChangedByType ActorType
	ChangedByID   *string
	ChangeType    TicketChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
