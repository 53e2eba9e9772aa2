// Package iprange provides allow-listed network ranges used to exempt
// client IPs from the session IP-change check. Ranges are parsed once at
// configuration load and are read-only afterwards.
package iprange

import (
	"fmt"
	"net/netip"
	"strings"
)

// Range is a single allow-listed network range: either a CIDR prefix or an
// inclusive lower-upper bound pair.
type Range struct {
	prefix netip.Prefix
	lower  netip.Addr
	upper  netip.Addr
	isCIDR bool
}

// Parse accepts "10.0.0.0/8", "10.0.0.1-10.0.0.99" or a bare address
// (treated as a single-host range).
func Parse(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, fmt.Errorf("iprange: empty range")
	}
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return Range{}, fmt.Errorf("iprange: %w", err)
		}
		return Range{prefix: p.Masked(), isCIDR: true}, nil
	}
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		lower, err := netip.ParseAddr(strings.TrimSpace(lo))
		if err != nil {
			return Range{}, fmt.Errorf("iprange: bad lower bound: %w", err)
		}
		upper, err := netip.ParseAddr(strings.TrimSpace(hi))
		if err != nil {
			return Range{}, fmt.Errorf("iprange: bad upper bound: %w", err)
		}
		if upper.Less(lower) {
			return Range{}, fmt.Errorf("iprange: upper bound %s below lower bound %s", upper, lower)
		}
		return Range{lower: lower, upper: upper}, nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return Range{}, fmt.Errorf("iprange: %w", err)
	}
	return Range{lower: addr, upper: addr}, nil
}

// ParseList parses a list of range expressions, skipping empty entries.
func ParseList(entries []string) ([]Range, error) {
	ranges := make([]Range, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e) == "" {
			continue
		}
		r, err := Parse(e)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// Contains reports whether ip falls inside the range.
func (r Range) Contains(ip netip.Addr) bool {
	if r.isCIDR {
		return r.prefix.Contains(ip.Unmap())
	}
	ip = ip.Unmap()
	return !ip.Less(r.lower) && !r.upper.Less(ip)
}

func (r Range) String() string {
	if r.isCIDR {
		return r.prefix.String()
	}
	if r.lower == r.upper {
		return r.lower.String()
	}
	return r.lower.String() + "-" + r.upper.String()
}

// AnyContains reports whether any range in the list covers the given textual
// address. Unparseable addresses are never covered.
func AnyContains(ranges []Range, ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, r := range ranges {
		if r.Contains(addr) {
			return true
		}
	}
	return false
}
