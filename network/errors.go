// SPDX-License-Identifier: MIT

package network

import "errors"

var (
	// ErrDuplicateID is returned when an entity with the same id already exists.
	ErrDuplicateID = errors.New("network: duplicate id")

	// ErrUnknownMetabolite is returned when a stoichiometric coefficient
	// references a metabolite missing from the network.
	ErrUnknownMetabolite = errors.New("network: unknown metabolite")

	// ErrUnknownReaction is returned when an expression or an operation
	// references a reaction missing from the network.
	ErrUnknownReaction = errors.New("network: unknown reaction")

	// ErrUnknownGene is returned for gene ids or names missing from the network.
	ErrUnknownGene = errors.New("network: unknown gene")

	// ErrBounds is returned when lower > upper or a bound is NaN.
	ErrBounds = errors.New("network: invalid flux bounds")

	// ErrSyntax is returned by the constraint parser.
	ErrSyntax = errors.New("network: constraint syntax error")
)
