package scan

// NoExpiry is the TTL reported for keys that never expire.
const NoExpiry int64 = -1

// KeyRecord is the metadata fetched for one scanned key.
type KeyRecord struct {
	Key      string
	IdleTime int64
	// TTL is only populated when Options.NeedsTTL is true.
	TTL int64
	// Gone marks a key deleted between enumeration and the metadata fetch.
	Gone bool
}

// Select reports whether r satisfies every clause configured in o.
// Unconfigured clauses are vacuously true.
func Select(r KeyRecord, o Options) bool {
	if o.MaxIdle != nil && r.IdleTime > *o.MaxIdle {
		return false
	}
	if o.MinIdle != nil && r.IdleTime < *o.MinIdle {
		return false
	}

	persistent := r.TTL == NoExpiry
	if o.NoExpiry && !persistent {
		return false
	}
	// A persistent key has no finite TTL: it is above any maximum and any minimum.
	if o.MaxTTL != nil && (persistent || r.TTL > *o.MaxTTL) {
		return false
	}
	if o.MinTTL != nil && !persistent && r.TTL < *o.MinTTL {
		return false
	}
	return true
}
