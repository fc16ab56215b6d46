package generate

import (
	"errors"

	"shaderstore/internal/naming"
	"shaderstore/internal/shader"
)

// Generator errors. Directory errors are fatal and raised before any output
// is written.
var (
	// ErrInvalidInputDirectory is returned when an input path is missing or
	// not a directory.
	ErrInvalidInputDirectory = errors.New("invalid input directory")

	// ErrInvalidOutputDirectory is returned when the output root is missing
	// or lacks the store source directory.
	ErrInvalidOutputDirectory = errors.New("invalid output directory")

	// ErrNameCollision is returned when two inputs derive the same symbol or
	// the same header path.
	ErrNameCollision = naming.ErrNameCollision

	// ErrMalformedShader is returned for empty or undecodable inputs unless
	// malformed files are tolerated.
	ErrMalformedShader = shader.ErrMalformedShader
)
