package cache

// Keyer derives cache keys. All components that share a cache must use the
// same Keyer so that identical lookups map to identical keys.
type Keyer interface {
	// LivenessKey returns the key for a probe of url under a named policy.
	// Different policies judge the same response differently, so the policy
	// is part of the key.
	LivenessKey(policy, url string) string
}

// DefaultKeyer hashes key components into fixed-length keys of the form
// "liveness:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LivenessKey implements Keyer.
func (DefaultKeyer) LivenessKey(policy, url string) string {
	return hashKey("liveness", policy, url)
}

// ScopedKeyer prefixes every key produced by an inner Keyer. Use it when
// several deployments or tenants share one Redis database:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer defaults
// to DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LivenessKey implements Keyer.
func (k *ScopedKeyer) LivenessKey(policy, url string) string {
	return k.prefix + k.inner.LivenessKey(policy, url)
}
