package domain

// Identity is the caller as asserted by the external identity provider.
// A nil *Identity is an anonymous caller.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
	IsAdmin     bool
}

func (i *Identity) Authenticated() bool { return i != nil && i.UserID != "" }

func (i *Identity) Admin() bool { return i.Authenticated() && i.IsAdmin }
