// Package model defines domain types used by the service.
package model

import "time"

// Product represents an inventory item and its quantity on hand.
//
// ID is assigned by relational backends only; document backends key products
// by Name and leave ID zero.
type Product struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Action names the kind of mutation an Activity describes.
type Action string

const (
	ActionAdded   Action = "Added"
	ActionUpdated Action = "Updated"
	ActionDeleted Action = "Deleted"
)

// Activity is an audit-log entry describing one product mutation.
type Activity struct {
	ID        int64     `json:"id,omitempty"`
	Action    Action    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}
