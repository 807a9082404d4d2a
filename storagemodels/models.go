/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"strings"
)

// EntityType is the stable token identifying a logical table. It is generated
// alongside the entity adapter and used both as the cache namespace and as the
// notification topic.
type EntityType string

// String returns the token.
func (e EntityType) String() string { return string(e) }

// Action classifies a mutation.
type Action int

const (
	// ActionInsert is fired after a successful insert.
	ActionInsert Action = iota + 1
	// ActionUpdate is fired after a successful update.
	ActionUpdate
	// ActionDelete is fired after a successful delete.
	ActionDelete
	// ActionChange is fired in addition to Insert or Update when the caller asked to save.
	ActionChange
)

var actionNames = map[Action]string{
	ActionInsert: "INSERT",
	ActionUpdate: "UPDATE",
	ActionDelete: "DELETE",
	ActionChange: "CHANGE",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction is the inverse of Action.String. It is case-insensitive.
func ParseAction(s string) (Action, error) {
	for a, n := range actionNames {
		if strings.EqualFold(n, s) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// Condition is a single primary-key column and its value.
type Condition struct {
	Column string
	Value  any
}

// Change describes a single row or table mutation delivered to listeners.
type Change struct {
	EntityType EntityType
	Action     Action
	// Model is the mutated record. It is nil for table-level changes and for
	// changes received from an out-of-process broadcast.
	Model any
	// Conditions are the primary-key values of the mutated row, if known.
	Conditions []Condition
}

// IsTableChange reports whether the change has no row identity.
func (c Change) IsTableChange() bool {
	return c.Model == nil && len(c.Conditions) == 0
}

// AutoIncrementStrategy selects which compiled insert statement a record binds to.
type AutoIncrementStrategy int

const (
	// AutoIncrementExplicit binds the caller-supplied primary key.
	AutoIncrementExplicit AutoIncrementStrategy = iota
	// AutoIncrementGenerated omits the key column and lets storage generate it.
	AutoIncrementGenerated
)

func (s AutoIncrementStrategy) String() string {
	if s == AutoIncrementGenerated {
		return "generated"
	}
	return "explicit"
}

// SaveOutcome reports which branch a save took.
type SaveOutcome int

const (
	// SaveFailed is returned alongside a non-nil error.
	SaveFailed SaveOutcome = iota
	// SaveInserted means the row did not exist (or the update touched no rows) and was inserted.
	SaveInserted
	// SaveUpdated means the existing row was updated.
	SaveUpdated
)

func (o SaveOutcome) String() string {
	switch o {
	case SaveInserted:
		return "inserted"
	case SaveUpdated:
		return "updated"
	default:
		return "failed"
	}
}

// Action maps the outcome to the specific action that fired.
func (o SaveOutcome) Action() Action {
	switch o {
	case SaveInserted:
		return ActionInsert
	case SaveUpdated:
		return ActionUpdate
	default:
		return 0
	}
}
