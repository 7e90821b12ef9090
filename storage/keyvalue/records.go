package keyvalue

import "github.com/giantswarm/oauth-core/storage"

// JSON shapes of the stored blobs

type clientRecord struct {
	ID      string `json:"id"`
	Secret  string `json:"secret"`
	Name    string `json:"name"`
	Trusted bool   `json:"trusted"`
}

func (r *clientRecord) toClient() *storage.Client {
	return &storage.Client{ID: r.ID, Secret: r.Secret, Name: r.Name, Trusted: r.Trusted}
}

type tokenRecord struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
	UserID   string `json:"user_id,omitempty"`
	Expires  int64  `json:"expires"`
}

func (r *tokenRecord) toToken() *storage.Token {
	return &storage.Token{
		Token:    r.Token,
		Type:     r.Type,
		ClientID: r.ClientID,
		UserID:   r.UserID,
		Expires:  r.Expires,
	}
}

type codeRecord struct {
	Code        string `json:"code"`
	ClientID    string `json:"client_id"`
	UserID      string `json:"user_id,omitempty"`
	RedirectURI string `json:"redirect_uri"`
	Expires     int64  `json:"expires"`
}

func (r *codeRecord) toCode() *storage.AuthorizationCode {
	return &storage.AuthorizationCode{
		Code:        r.Code,
		ClientID:    r.ClientID,
		UserID:      r.UserID,
		RedirectURI: r.RedirectURI,
		Expires:     r.Expires,
	}
}

type scopeRecord struct {
	Scope       string `json:"scope"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toScopeRecord(s *storage.Scope) scopeRecord {
	return scopeRecord{Scope: s.Scope, Name: s.Name, Description: s.Description}
}

func (r scopeRecord) toScope() *storage.Scope {
	return &storage.Scope{Scope: r.Scope, Name: r.Name, Description: r.Description}
}
