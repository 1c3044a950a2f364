package probe

import "strconv"

// ttlHops guesses the hop count from a reply TTL, assuming the sender started
// from the next power of two (or 255).
func ttlHops(ttl int) int {
	ttl0 := ttl
	for ttl0 < 255 && ttl0&(ttl0-1) != 0 {
		ttl0++
	}
	return ttl0 - ttl
}

// ttlOS guesses the peer OS from a reply TTL, assuming a default initial TTL
// (Linux 64, Windows 128, Mac 255).
func ttlOS(ttl int) string {
	switch {
	case ttl > 128:
		return "Mac"
	case ttl > 64:
		return "Win"
	default:
		return "Lin"
	}
}

func ttlData(ttl int) []KV {
	return []KV{
		{Name: "TTL", Value: strconv.Itoa(ttl)},
		{Name: "Hops", Value: strconv.Itoa(ttlHops(ttl))},
		{Name: "OS", Value: ttlOS(ttl)},
	}
}
