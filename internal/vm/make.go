// Empty-aggregate construction (spec §4.3's closing note that a literal
// display compiles to an empty aggregate followed by one `with`/`sof` per
// element): OpMakeSet/OpMakeTuple/OpMakeMap just seed the destination
// operand, leaving population to the with/sof opcodes that follow.
package vm

import (
	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/trie"
	"github.com/setl2-lang/setl2vm/internal/vmerr"
)

func (in *Interpreter) execMake(instr bytecode.Instruction) error {
	switch instr.Op {
	case bytecode.OpMakeSet:
		store(instr.A, trie.EmptySet())
	case bytecode.OpMakeTuple:
		store(instr.A, trie.WrapTuple(trie.EmptyTuple()))
	case bytecode.OpMakeMap:
		store(instr.A, trie.EmptyMap())
	default:
		return vmerr.Typef("unhandled construction opcode %s", instr.Op)
	}
	return nil
}
