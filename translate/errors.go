package translate

import "errors"

var (
	// ErrIDCollision is returned when a pseudo reaction or metabolite id
	// generated by an extension is already taken (for example a gene id
	// equal to a reaction id).
	ErrIDCollision = errors.New("translate: generated id collides with an existing id")

	// ErrInexact is returned when a module references a reaction whose flux
	// cannot be recovered in the compressed network.
	ErrInexact = errors.New("translate: reaction has no exact compressed image")
)
