/*
Package adapter defines the per-entity adapter entityflow consumes.

Adapters are produced by a code generator from the entity schema. They know the
SQL text for each statement, how to bind a record's fields and how to load a
record from a row:

	type userAdapter struct{}

	func (userAdapter) EntityType() storagemodels.EntityType { return "User" }
	func (userAdapter) InsertQuery() string { return `INSERT INTO users (id, name) VALUES (?, ?)` }
	func (userAdapter) AutoIncrementInsertQuery() string { return `INSERT INTO users (name) VALUES (?)` }
	...

Optional behavior is discovered through the CachingKeyer, ForeignKeySaver,
ChildDeleter and RelationshipLoader interfaces.
*/
package adapter
