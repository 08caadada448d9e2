package timeseries

import (
	"hash/fnv"
	"sort"
	"strconv"
)

// Fingerprint identifies a series: a metric name plus a fixed set of
// label pairs. Two samples with the same name and the same labels
// (regardless of the order they were provided in) share a Fingerprint.
type Fingerprint uint64

// NewFingerprint computes the Fingerprint for name+labels. Labels are
// sorted by key before hashing so insertion order never affects identity.
func NewFingerprint(name string, labels map[string]string) Fingerprint {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	h.Write([]byte(name))
	h.Write([]byte{0})
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(labels[k]))
		h.Write([]byte{0})
	}
	return Fingerprint(h.Sum64())
}

// String renders the fingerprint as a lowercase hex string without zero
// padding. The bolt backend keys samples by the 8-byte big-endian form
// instead.
func (f Fingerprint) String() string {
	return strconv.FormatUint(uint64(f), 16)
}

func sortedLabelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
