package vacontext

// Option is an extra setting of a context, interpreted by the package
// implementing it (see e.g. manager.OptionOverlay).
type Option = any
type Options []Option

// GetOption returns the first option of type T.
func GetOption[T any](in Options) (T, bool) {
	for _, item := range in {
		if v, ok := item.(T); ok {
			return v, true
		}
	}

	var zeroValue T
	return zeroValue, false
}
