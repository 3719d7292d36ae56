// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.9.21
//

package gnssl1

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldSet is a key-indexed view of one tokenized RTCM line, built
// once per line so decoders don't re-scan the raw text for every
// field they read (C1, spec §4.1; see the "key-driven scanner"
// design note).
type FieldSet map[string]string

// ScanFields tokenizes a line of the form
// "<RTCM(1019, DF002=1019, DF009=5, ...)>" into a key->raw-value map.
// Tokens without an "=" (the leading "<RTCM(<type>" marker, blank
// lines) are ignored. Lines beginning with "#" or whitespace-only
// lines yield an empty FieldSet.
func ScanFields(line string) FieldSet {
	fields := FieldSet{}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return fields
	}
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimRight(part, ")> \t")
		eq := strings.Index(part, "=")
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(part[:eq])
		val := strings.TrimSpace(part[eq+1:])
		if key == "" || val == "" {
			continue
		}
		fields[key] = val
	}
	return fields
}

// Float looks up key and parses it as a float64. A missing or
// unparsable field returns ok=false; callers leave their
// zero-initialized target unchanged in that case (§4.1).
func (f FieldSet) Float(key string) (float64, bool) {
	s, ok := f[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Int looks up key and parses it as an integer, tolerating a
// floating-point rendering ("60" or "60.0").
func (f FieldSet) Int(key string) (int, bool) {
	v, ok := f.Float(key)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// String looks up key and returns its raw text, e.g. a signal id
// like "1C".
func (f FieldSet) String(key string) (string, bool) {
	s, ok := f[key]
	return s, ok
}

// Suffixed builds the zero-padded, index-suffixed key used by
// repeated per-cell/per-satellite fields, e.g. Suffixed("DF009", 3)
// == "DF009_03", matching the reference decoder's field naming.
func Suffixed(base string, idx int) string {
	return fmt.Sprintf("%s_%02d", base, idx)
}
