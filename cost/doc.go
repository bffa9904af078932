// Package cost owns the intervention cost maps: knockout and knock-in costs
// per reaction, their gene-level counterparts, and their aggregation through
// the compression steps.
//
// Aggregation rules per lump:
//
//	serial,   knockout: min over candidate members (one cut breaks the chain)
//	serial,   knock-in: sum over knock-in members (every one must be added);
//	                    a serial lump holding any knock-in is a knock-in
//	parallel, knockout: sum (every branch must be cut)
//	parallel, knock-in: min (one added branch suffices)
//
// Levels keeps the maps valid before each compression step so that the
// decompressor can tell which members of a lump were candidates.
package cost
