package session

type Option func(*Manager)

func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

func WithTransport(transport Transport) Option {
	return func(m *Manager) {
		m.transport = transport
	}
}

func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithSecret sets the key the default cookie transport signs tokens with.
func WithSecret(secret string) Option {
	return func(m *Manager) {
		m.secret = secret
	}
}
