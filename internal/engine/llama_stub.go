//go:build !llama

package engine

// New fails fast when the binary was built without the 'llama' tag. No
// mocked inference in production builds; tests inject their own engines.
func New(path string, opts Options) (Engine, error) {
	return nil, ErrUnavailable("llama support not built (missing 'llama' build tag)")
}
