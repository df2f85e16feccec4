// Package trace parses memory-access traces and replays them against a
// cache model.
//
// A trace is line-oriented text. Lines whose first character is not a
// blank are instruction-fetch entries and are skipped. Data access
// lines have the form
//
//	<space><op> <hexAddress>,<decimalSize>
//
// where op is L (load), S (store), or M (modify, a load immediately
// followed by a store to the same bytes).
package trace

import (
	"fmt"
	"strconv"
	"strings"
)

// Op identifies the kind of memory operation a record describes.
type Op byte

const (
	// OpLoad is a data read.
	OpLoad Op = 'L'
	// OpStore is a data write.
	OpStore Op = 'S'
	// OpModify is a data read immediately followed by a write to the
	// same address range.
	OpModify Op = 'M'
)

func (o Op) String() string {
	return string(byte(o))
}

// Record is one parsed data-access entry of a trace.
type Record struct {
	Op   Op
	Addr uint64
	// Size is the number of bytes touched starting at Addr.
	Size uint64
}

// ParseRecord parses one line of trace text. It returns ok=false for
// lines the replay must skip (first character is not a blank, or the
// line is empty). A line that starts like a data access but cannot be
// parsed yields an error; replay fails fast on such lines rather than
// guessing.
func ParseRecord(s string) (rec Record, ok bool, err error) {
	if s == "" || (s[0] != ' ' && s[0] != '\t') {
		return Record{}, false, nil
	}

	body := strings.TrimSpace(s)
	if body == "" {
		return Record{}, false, nil
	}

	opStr, rest, found := strings.Cut(body, " ")
	if !found {
		return Record{}, false, fmt.Errorf("malformed record %q", s)
	}

	if len(opStr) != 1 {
		return Record{}, false, fmt.Errorf("malformed operation %q", opStr)
	}
	op := Op(opStr[0])
	if op != OpLoad && op != OpStore && op != OpModify {
		return Record{}, false, fmt.Errorf("unknown operation %q", opStr)
	}

	addrStr, sizeStr, found := strings.Cut(strings.TrimSpace(rest), ",")
	if !found {
		return Record{}, false, fmt.Errorf("malformed record %q: missing size", s)
	}

	addr, err := strconv.ParseUint(strings.TrimSpace(addrStr), 16, 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("malformed address %q: %w", addrStr, err)
	}

	size, err := strconv.ParseUint(strings.TrimSpace(sizeStr), 10, 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("malformed size %q: %w", sizeStr, err)
	}
	if size == 0 {
		return Record{}, false, fmt.Errorf("size must be positive in record %q", s)
	}

	return Record{Op: op, Addr: addr, Size: size}, true, nil
}
