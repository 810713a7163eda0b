/*

Round trip of a single SIL instruction

Instruction Text ->
	lex ->
Tokens (lex) ->
	parse ->
Instruction (ir) with Types (tp) ->
	format ->
Instruction Text

The printed text equals the input for text in the compiler's canonical spacing.

*/
package compiler
