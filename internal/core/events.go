package core

import "time"

const (
	CollectionIncomes      Collection = "receitas"
	CollectionExpenses     Collection = "despesas"
	CollectionGoals        Collection = "metas"
	CollectionProfile      Collection = "profiles"
	CollectionSubscription Collection = "subscriptions"
)

const (
	ActionCreated ChangeAction = "created"
	ActionUpdated ChangeAction = "updated"
	ActionDeleted ChangeAction = "deleted"
)

type (
	Collection   string
	ChangeAction string

	// ChangeEvent announces a successful write to one of a user's collections.
	ChangeEvent struct {
		UserID     string       `json:"user_id"`
		Collection Collection   `json:"collection"`
		Action     ChangeAction `json:"action"`
		RecordID   string       `json:"record_id,omitempty"`
		Timestamp  time.Time    `json:"timestamp"`
	}
)
