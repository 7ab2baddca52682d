//go:build !release

package debug

// Enabled reports if assertions are checked. Builds with the release tag
// compile them out.
const Enabled = true

// Assert panics with the info string when fn returns false. fn is not
// evaluated in release builds, so it must not have side effects.
func Assert(info string, fn func() bool) {
	if !fn() {
		panic("assertion failed: " + info)
	}
}
