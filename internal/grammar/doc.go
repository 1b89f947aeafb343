// Package grammar parses spoken phrases into target trees.
//
// The grammar is
//
//	command   = [action] target
//	target    = range {list_specifier range}
//	range     = primitive range_specifier primitive
//	          | [range_specifier] primitive
//	primitive = decorated | special_mark | line
//	decorated = [hat_color] [hat_shape] key
//	line      = ("up" | "down") number
//	          | direction number ["past" [direction] number]   (full line numbers)
//
// Word lists (actions, specifiers, hat styles, special marks) are read from
// the live vocabulary on every parse, so a reload takes effect on the next
// phrase. Keys are the spelling alphabet ("air" .. "zip") and digit words.
// Numbers are numerals or number words up to ninety-nine.
//
// Parsing backtracks: every alternative is explored and the first complete
// parse in preference order wins. Longer matches are preferred, so
// "clone up" is the action when what follows is a target, and "clone" is
// when only "up 3" makes a target.
package grammar
