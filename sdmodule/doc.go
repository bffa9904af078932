// Package sdmodule defines the strain-design modules as a closed tagged
// union: Protect, Suppress, OptKnock, RobustKnock and OptCouple. Each kind
// carries exactly the fields it needs, so downstream code switches on the
// concrete type instead of probing optional fields.
//
// Module constraints, objectives and product expressions are linear
// expressions over reaction identifiers (network.Expr). Rewrite maps all of
// them through one function, which is how the translator carries modules
// into the compressed or gene-extended reaction space.
//
// Spec is the flat serialisable form (yaml/json) used for audit export.
package sdmodule
