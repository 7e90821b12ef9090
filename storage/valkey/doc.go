// Package valkey provides a Valkey client for the keyvalue storage backend.
//
// Valkey is a high-performance key-value store that is wire-compatible with Redis.
// The Store type implements [keyvalue.Client] with the GET, SET, DEL, SADD,
// SREM and SMEMBERS commands, which is all the backend needs. It is suitable
// for production deployments that require:
//
//   - Shared storage for several server instances
//   - Persistence across server restarts
//
// # Key Schema
//
// Keys are produced by the keyvalue backend from the configured table names.
// With the default tables:
//
//	oauth:clients:{id}                     -> JSON(client)
//	oauth:clients                          -> SET of client ids
//	oauth:client:endpoints:{id}            -> SET of JSON(endpoint)
//	oauth:tokens:{token}                   -> JSON(token)
//	oauth:tokens                           -> SET of token ids
//	oauth:token:scopes:{token}             -> SET of JSON(scope)
//	oauth:authorization:codes:{code}       -> JSON(code)
//	oauth:authorization:code:scopes:{code} -> SET of JSON(scope)
//	oauth:scopes:{id}                      -> JSON(scope)
//
// Config.KeyPrefix, when set, is prepended to every key.
//
// # Usage
//
//	client, err := valkey.New(valkey.Config{Address: "localhost:6379"})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	backend := keyvalue.New(client, storage.DefaultTables())
//
// Configuration can also be read from the environment:
//
//	cfg, err := valkey.LoadConfigFromEnv() // VALKEY_ADDR, VALKEY_PASSWORD, ...
package valkey
