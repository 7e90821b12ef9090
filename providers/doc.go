// Package providers defines how resource owners are authenticated for the
// password grant.
//
// An Authenticator turns a username and password into a user id or returns
// ErrInvalidCredentials. Implementations are provided in subpackages:
//   - providers/local: in-process user table with bcrypt password hashes
//   - providers/upstream: resource owner password exchange against an
//     upstream OAuth2 server, optionally located through OIDC discovery
//
// Any function with the right signature can be used through AuthenticatorFunc:
//
//	auth := providers.AuthenticatorFunc(func(ctx context.Context, user, pass string) (string, error) {
//	    if user == "admin" && pass == os.Getenv("ADMIN_PASSWORD") {
//	        return "admin", nil
//	    }
//	    return "", providers.ErrInvalidCredentials
//	})
package providers
