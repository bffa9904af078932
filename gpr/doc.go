// Package gpr parses gene-reaction rules and enumerates the minimal gene
// combinations that enable a reaction.
//
// Rules use the usual infix grammar
//
//	rule := term { ("or" | "|") term }
//	term := atom { ("and" | "&") atom }
//	atom := gene | "(" rule ")"
//
// with case-insensitive keywords. Gene identifiers are any run of
// characters other than whitespace and parentheses.
//
// MinimalSets expands a rule into its minimal satisfying gene sets with the
// gini SAT solver: the rule is Tseitin encoded, every model is shrunk to a
// minimal one under assumptions and then blocked together with all of its
// supersets, until the formula becomes unsatisfiable.
package gpr
