// Package memory provides an in-process key-value client for the keyvalue
// storage backend.
//
// Strings and sets live in Go maps guarded by a sync.RWMutex. The store is
// suitable for development, testing, and single-instance deployments where
// persistence is not required. There are no background goroutines: expired
// tokens are removed by the resource validator when it encounters them.
//
// For production deployments requiring persistence or multiple instances,
// use the storage/valkey package instead.
//
// Example usage:
//
//	store := memory.New()
//	store.SetInstrumentation(inst) // optional
//	backend := keyvalue.New(store, storage.DefaultTables())
package memory
