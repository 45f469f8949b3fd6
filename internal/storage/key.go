package storage

// KeySeparator joins flag key and target ID in a cache key.
//
// It is not escaped: ("a:b", "c") and ("a", "b:c") map to the same key.
const KeySeparator = ":"

// Key derives the cache key for a flag and optional target. An absent
// target and an empty target both contribute "".
func Key(flagKey, targetID string) string {
	return flagKey + KeySeparator + targetID
}
