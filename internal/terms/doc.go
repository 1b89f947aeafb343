// Package terms maintains the user-customizable spoken vocabulary.
//
// Vocabulary is grouped into domains (actions, compound_targets, hat_styles,
// special_marks). Each domain has built-in default tables, one per spoken
// list, mapping spoken form to identifier. A CSV file per domain
// overrides the spoken forms:
//
//	Spoken form,Cursorless identifier
//	kill,delete
//	this,currentSelection
//
// For every identifier the file mentions, the file's spoken forms replace
// the defaults; identifiers the file does not mention keep their defaults.
//
// A Registry holds the merged vocabulary of one domain behind an atomic
// pointer, so the grammar always reads a complete snapshot while a reload
// swaps in the next one. The Manager owns all registries and their file
// watches.
package terms
