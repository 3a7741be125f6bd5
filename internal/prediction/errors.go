package prediction

import "errors"

// ErrNoBundles is returned when no target's bundle could be loaded.
var ErrNoBundles = errors.New("no model bundle could be loaded")
