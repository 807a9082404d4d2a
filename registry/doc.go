/*
Package registry maps entity types to the tables serving them.

A Registry is keyed twice: by the stable EntityType token generated alongside
each adapter, and by the Go record type. Lookups by token serve string-based
callers such as decoded change URIs; lookups by Go type serve generic code:

	reg := registry.New()
	if err := registry.Put(reg, testmodels.PlayerType, players); err != nil {
	    return err
	}
	players, err := registry.Get[*testmodels.Player, *executor.ModelSaver[*testmodels.Player]](reg)

A Registry is owned by its database context and is safe for concurrent use.
There is no process-wide registry.
*/
package registry
