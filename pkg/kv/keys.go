package kv

import "bytes"

// delimiter separates key segments. DNS-1123 names/namespaces and the
// fixed literal segments this package's callers use ("res", "commit",
// "head", "tip", GVK strings) never contain a NUL byte, so concatenating
// segments with it preserves the property that a prefix scan over K
// complete segments matches exactly the keys that extend those K
// segments — never a sibling whose next segment happens to share a byte
// prefix (e.g. "foo" vs "foobar").
const delimiter = 0x00

// EncodeKey joins segments into an ordered, prefix-safe key. Every
// segment, including the last, is followed by the delimiter so that
// EncodeKey("res", "v1/Pod") is a safe byte-prefix of
// EncodeKey("res", "v1/Pod", "default", "p1").
func EncodeKey(segments ...string) []byte {
	var buf bytes.Buffer
	for _, s := range segments {
		buf.WriteString(s)
		buf.WriteByte(delimiter)
	}
	return buf.Bytes()
}

// Prefix is an alias for EncodeKey, named for call sites that use the
// result only as a scan prefix rather than a full key.
func Prefix(segments ...string) []byte {
	return EncodeKey(segments...)
}
