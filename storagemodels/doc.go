/*
Package storagemodels defines the vocabulary shared by every entityflow package.

Key Types:

EntityType:
The stable token naming a logical table. It namespaces the model cache and is the
topic notifications are published on:

	const UserType storagemodels.EntityType = "User"

Action:
Classifies a mutation. Every notification carries one:

	ActionInsert, ActionUpdate, ActionDelete, ActionChange

ActionChange is fired in addition to the specific Insert/Update action whenever a
caller asked to save, so listeners can tell "save was requested" from "which branch ran".

Change:
A delivered notification:

	type Change struct {
	    EntityType EntityType
	    Action     Action
	    Model      any
	    Conditions []Condition // primary-key column/value pairs
	}

AutoIncrementStrategy and SaveOutcome:
Tagged variants resolved once per record by the executor, in place of subclassed savers.

StreamOptions:
Functional options for polling a change journal:

	opts := []StreamOption{
	    WithPageSize(25),
	    WithMaxRetries(3),
	    WithPollInterval(time.Second),
	}
*/
package storagemodels
