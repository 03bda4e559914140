package cache

// ScopedKeyer prefixes every key of an inner Keyer. The CLI and the server
// scope keys by build version so reports written by another release, whose
// JSON may differ, are never read back.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer returns a Keyer that prepends prefix to the keys of inner,
// or of a DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) AnalysisKey(snapshotHash string, opts AnalysisKeyOpts) string {
	return k.prefix + k.inner.AnalysisKey(snapshotHash, opts)
}

func (k *ScopedKeyer) TreeKey(snapshotHash string) string {
	return k.prefix + k.inner.TreeKey(snapshotHash)
}
