package mapview

import "errors"

var (
	// ErrNoCanvas is returned by New when no canvas is supplied.
	ErrNoCanvas = errors.New("mapview: no canvas")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("mapview: invalid config")
	// ErrInvalidLocation is returned when a location has non-finite fields.
	ErrInvalidLocation = errors.New("mapview: invalid location")
	// ErrSingularTransform is returned when inverting a transform whose
	// linear part has a zero or non-finite determinant.
	ErrSingularTransform = errors.New("mapview: singular transform")
	// ErrSingularSystem is returned by the least-squares solver when the
	// constraint points are degenerate.
	ErrSingularSystem = errors.New("mapview: singular system")
	// ErrTileStatus is wrapped by HTTPLoader for non-200 tile responses.
	ErrTileStatus = errors.New("mapview: unexpected tile status")
	// ErrDecode is wrapped by HTTPLoader when a tile body cannot be decoded.
	ErrDecode = errors.New("mapview: decode tile")
)
