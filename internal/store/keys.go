package store

// ExpireFlags controls EXPIRE/PEXPIRE/EXPIREAT/PEXPIREAT's conditional
// update behavior, mirroring ZAddFlags' NX/XX/GT/LT shape. A key with no
// expiry is treated as an infinite TTL for GT/LT, matching Redis: GT never
// applies a finite expiry over an infinite one, LT always does.
type ExpireFlags struct {
	NX, XX, GT, LT bool
}

// Expire sets key's expiry to an absolute Unix-millisecond instant,
// returning false if key does not exist or flags reject the update.
func (s *Store) Expire(key string, atMs int64, flags ExpireFlags) bool {
	e, ok := s.writeEntry(key)
	if !ok {
		return false
	}
	if !expireAllowed(e, atMs, flags) {
		return false
	}
	s.setExpiryLocked(key, e, atMs)
	return true
}

func expireAllowed(e *Entry, atMs int64, flags ExpireFlags) bool {
	hasTTL := e.hasExpiry()
	if flags.NX && hasTTL {
		return false
	}
	if flags.XX && !hasTTL {
		return false
	}
	if flags.GT {
		if !hasTTL {
			return false
		}
		return atMs > e.ExpireAtMs
	}
	if flags.LT {
		if !hasTTL {
			return true
		}
		return atMs < e.ExpireAtMs
	}
	return true
}

// Persist clears key's expiry, returning true if it previously had one.
func (s *Store) Persist(key string) bool {
	e, ok := s.writeEntry(key)
	if !ok || !e.hasExpiry() {
		return false
	}
	s.setExpiryLocked(key, e, 0)
	return true
}

// ExpireAtMs returns the raw absolute expiry instant for key (0 if the key
// has none or does not exist), for callers that need to carry an existing
// expiry forward across an unconditional overwrite (SET ... KEEPTTL).
func (s *Store) ExpireAtMs(key string) int64 {
	e, ok := s.readEntry(key)
	if !ok {
		return 0
	}
	return e.ExpireAtMs
}

// TTLMs returns the remaining time-to-live in milliseconds: -2 if the key
// does not exist, -1 if it exists with no expiry.
func (s *Store) TTLMs(key string) int64 {
	e, ok := s.readEntry(key)
	if !ok {
		return -2
	}
	if !e.hasExpiry() {
		return -1
	}
	remaining := e.ExpireAtMs - s.clock()
	if remaining < 0 {
		return 0
	}
	return remaining
}
