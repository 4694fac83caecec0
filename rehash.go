package argon2

// NeedsRehash reports whether a stored PHC hash was produced with
// different parameters than desired and should be recomputed on next
// successful login. Any difference in variant, version, memory, time,
// parallelism, or tag length triggers a rehash; the salt is per-hash
// material and never does.
func NeedsRehash(encoded string, desired Params) (bool, error) {
	ph, err := Decode(encoded)
	if err != nil {
		return false, err
	}
	return ph.Variant != desired.Variant ||
		ph.Version != desired.Version ||
		ph.Memory != desired.Memory ||
		ph.Time != desired.Time ||
		ph.Parallelism != desired.Parallelism ||
		uint32(len(ph.Tag)) != desired.TagLength, nil
}
