package cache

import "fmt"

// Policy selects the eviction policy. Both policies share the same
// victim-selection rule (minimum timestamp); they differ only in
// whether a hit refreshes the hit line's timestamp.
type Policy int

const (
	// PolicyFIFO evicts the line resident longest. Hits do not refresh
	// timestamps, so insertion order decides eviction order.
	PolicyFIFO Policy = iota + 1
	// PolicyLRU evicts the line whose most recent access is oldest.
	// Every hit refreshes the hit line's timestamp.
	PolicyLRU
)

// ParsePolicy converts a policy name from the command line or a config
// file into a Policy. Recognized names are "FIFO" and "LRU".
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "FIFO":
		return PolicyFIFO, nil
	case "LRU":
		return PolicyLRU, nil
	default:
		return 0, fmt.Errorf("unknown eviction policy %q (must be FIFO or LRU)", name)
	}
}

func (p Policy) String() string {
	switch p {
	case PolicyFIFO:
		return "FIFO"
	case PolicyLRU:
		return "LRU"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}
