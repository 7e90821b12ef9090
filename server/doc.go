// Package server assembles the authorization server core behind one facade.
//
// A Server owns the token generator, the scope validator, the grant registry
// and the resource validator, all built from an oauth.Config and a
// storage.Backend chosen once at construction:
//
//	db, _ := relational.OpenSQLite("oauth.db")
//	backend := relational.New(db, storage.DefaultTables())
//	_ = backend.Migrate(ctx)
//
//	cfg, _ := oauth.LoadConfigFromEnv()
//	srv, err := server.New(backend, cfg,
//	    server.WithAuthenticator(users),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tok, err := srv.IssueToken(ctx, oauth.NewHTTPRequest(r))
//
// Handler exposes IssueToken as a token endpoint and ValidateRequest as
// middleware for protected resources.
package server
