package models

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

const KudosIDPrefix = "kudos_"

// Kudos is a recognition note from one employee to another. It is created
// pending and only an approval step flips ApprovalStatus.
type Kudos struct {
	ID             string         `json:"_id" bson:"_id"`
	KudosID        string         `json:"kudos_id" bson:"kudos_id"`
	FromEmployeeID string         `json:"from_employee_id" bson:"from_employee_id"`
	ToEmployeeID   string         `json:"to_employee_id" bson:"to_employee_id"`
	ManagerID      string         `json:"manager_id" bson:"manager_id"`
	TeamID         string         `json:"team_id" bson:"team_id"`
	Message        string         `json:"message" bson:"message"`
	ValuesTags     []string       `json:"values_tags" bson:"values_tags"`
	RelatedEventID *string        `json:"related_event_id" bson:"related_event_id"`
	ApprovalStatus ApprovalStatus `json:"approval_status" bson:"approval_status"`
	CreatedAt      string         `json:"created_at" bson:"created_at"`
}

// Document returns the store representation of k.
func (k Kudos) Document() map[string]any {
	tags := k.ValuesTags
	if tags == nil {
		tags = []string{}
	}
	doc := map[string]any{
		"_id":              k.ID,
		"kudos_id":         k.KudosID,
		"from_employee_id": k.FromEmployeeID,
		"to_employee_id":   k.ToEmployeeID,
		"manager_id":       k.ManagerID,
		"team_id":          k.TeamID,
		"message":          k.Message,
		"values_tags":      tags,
		"related_event_id": nil,
		"approval_status":  string(k.ApprovalStatus),
		"created_at":       k.CreatedAt,
	}
	if k.RelatedEventID != nil {
		doc["related_event_id"] = *k.RelatedEventID
	}
	return doc
}

// CreateKudosRequest is the client payload for a new kudos.
type CreateKudosRequest struct {
	FromEmployeeID string   `json:"from_employee_id" validate:"required"`
	ToEmployeeID   string   `json:"to_employee_id" validate:"required"`
	ManagerID      string   `json:"manager_id" validate:"required"`
	TeamID         string   `json:"team_id" validate:"required"`
	Message        string   `json:"message" validate:"required,max=2000"`
	ValuesTags     []string `json:"values_tags" validate:"omitempty,dive,required"`
	// RelatedEventID references a work event. It is stored as given.
	RelatedEventID *string `json:"related_event_id"`
	// RequestID is carried on the kudos.created event for correlation.
	RequestID string `json:"-" header:"x-request-id"`
}
