package domain

import "time"

// MutationOp identifies the kind of write a PendingMutation performs.
type MutationOp string

const (
	OpCreate MutationOp = "create"
	OpUpdate MutationOp = "update"
	OpDelete MutationOp = "delete"
)

// PendingMutation describes a create/update/delete that has been sent and
// not yet settled. TargetID is nil for creates.
type PendingMutation struct {
	ID         string
	Collection string
	Op         MutationOp
	TargetID   *int64
	StartedAt  time.Time
}
