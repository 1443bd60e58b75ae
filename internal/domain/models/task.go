package models

import "time"

// TaskStatus is the lifecycle state of an assigned task. The only
// transition is pending -> completed; there is no cancel or reopen.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// PlannedInput is an input the assignee is expected to use, captured with
// the unit name at assignment time.
type PlannedInput struct {
	InputID   string  `bson:"inputId" json:"inputId"`
	InputName string  `bson:"inputName" json:"inputName"`
	Quantity  float64 `bson:"quantity" json:"quantity"`
	Unit      string  `bson:"unit" json:"unit"`
}

// Task is a unit of work assigned by an admin to an operator.
type Task struct {
	ID                 string         `bson:"_id,omitempty" json:"id"`
	Name               string         `bson:"name" json:"name"`
	Description        string         `bson:"description,omitempty" json:"description,omitempty"`
	Date               time.Time      `bson:"date" json:"date"`
	LocationID         string         `bson:"locationId" json:"locationId"`
	LocationName       string         `bson:"locationName" json:"locationName"`
	LaborTypeID        string         `bson:"laborTypeId" json:"laborTypeId"`
	LaborTypeName      string         `bson:"laborTypeName" json:"laborTypeName"`
	AssignedToUserID   string         `bson:"assignedToUserId" json:"assignedToUserId"`
	AssignedToUserName string         `bson:"assignedToUserName" json:"assignedToUserName"`
	AssignedByUserID   string         `bson:"assignedByUserId" json:"assignedByUserId"`
	Status             TaskStatus     `bson:"status" json:"status"`
	PlannedInputs      []PlannedInput `bson:"plannedInputs,omitempty" json:"plannedInputs,omitempty"`
	CompletedAt        *time.Time     `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CompletedBy        string         `bson:"completedBy,omitempty" json:"completedBy,omitempty"`
	CreatedAt          time.Time      `bson:"createdAt" json:"createdAt"`
}
