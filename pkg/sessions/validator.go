package sessions

import "time"

// Decision is the outcome of validating a session key's timing
type Decision int

const (
	// Pass means the key is valid as-is
	Pass Decision = iota
	// ReValidate means the key is valid but its timestamp must be
	// refreshed to now before forwarding
	ReValidate
	// Expire means the key is dead and must be purged
	Expire
)

func (d Decision) String() string {
	switch d {
	case Pass:
		return "pass"
	case ReValidate:
		return "revalidate"
	case Expire:
		return "expire"
	default:
		return "unknown"
	}
}

// Decide resolves a key's validity from its last-validated timestamp and
// the configured windows. A zero duration disables the corresponding
// window: zero expiration means keys never expire (always Pass), zero
// revalidation means timestamps are never refreshed.
//
// Expiration is checked before revalidation, so a configuration where
// revalidation >= expiration still expires on time. Both timestamps are
// compared on the same clock; callers pass UTC throughout.
func Decide(now, lastValidated time.Time, expiration, revalidation time.Duration) Decision {
	if expiration == 0 {
		return Pass
	}
	elapsed := now.Sub(lastValidated)
	if elapsed >= expiration {
		return Expire
	}
	if revalidation > 0 && elapsed >= revalidation {
		return ReValidate
	}
	return Pass
}
