// Package decompress maps designs of a compressed network back to the
// original reactions, re-checks their cost and folds regulatory
// interventions into boolean flags.
//
// Lumps are undone step by step, last step first:
//
//	serial   knockout   one design per knockout candidate member
//	serial   knock-in   every knock-in member inserted
//	parallel knockout   every member knocked out
//	parallel knock-in   one design per knock-in member
//
// A knock-in lump left out (marker 0) reports all its knock-in members
// with marker 0.
package decompress
