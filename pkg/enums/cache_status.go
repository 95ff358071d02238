package enums

// CacheStatus tags the outcome of a signed-URL cache lookup. It is surfaced
// in a response header for diagnosis and never changes response correctness.
type CacheStatus string

const (
	CacheStatusHit    CacheStatus = "hit"
	CacheStatusMiss   CacheStatus = "miss"
	CacheStatusError  CacheStatus = "error"
	CacheStatusBypass CacheStatus = "bypass"
)

func (s CacheStatus) String() string {
	return string(s)
}
