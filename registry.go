package authkit

// Registry maps provider ids to provider implementations. It is built once
// at construction and never mutated afterwards, so it is safe for unlimited
// concurrent readers.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a registry from an ordered provider list. A later
// provider with the same id replaces an earlier one.
func NewRegistry(providers ...Provider) *Registry {
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		m[p.ID()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider registered under id.
func (r *Registry) Get(id string) (Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, NewProviderNotFoundError(id)
	}
	return p, nil
}

// OAuth returns the provider registered under id, requiring it to be an
// OAuth provider.
func (r *Registry) OAuth(id string) (OAuthProvider, error) {
	p, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	op, ok := p.(OAuthProvider)
	if !ok {
		return nil, NewInvalidProviderTypeError(id)
	}
	return op, nil
}

// Credential returns the provider registered under the reserved
// "credential" id. Finding an OAuth provider there is a distinct error from
// finding nothing.
func (r *Registry) Credential() (CredentialProvider, error) {
	p, err := r.Get(CredentialProviderID)
	if err != nil {
		return nil, err
	}
	cp, ok := p.(CredentialProvider)
	if !ok {
		return nil, NewInvalidCredentialProviderTypeError()
	}
	return cp, nil
}
