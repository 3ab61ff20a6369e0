// Control-flow and I/O-wrapper opcode wiring: conditional branches and the
// print/read built-ins spec §6 calls out as an external collaborator the
// core must still be able to drive end to end. Grounded on the teacher's
// Inspect()-style value formatting (internal/evaluator/object.go),
// generalized from the teacher's Go-native object graph to this package's
// tagged Specifier/payload model.
package vm

import (
	"fmt"
	"strings"

	"github.com/setl2-lang/setl2vm/internal/bytecode"
	"github.com/setl2-lang/setl2vm/internal/object"
	"github.com/setl2-lang/setl2vm/internal/trie"
	"github.com/setl2-lang/setl2vm/internal/value"
	"github.com/setl2-lang/setl2vm/internal/vmerr"
)

// execJumpCond implements OpJumpFalse/OpJumpTrue: A carries the branch
// target (OperandTarget, as OpJump's own A does), B the boolean-atom
// condition. want is true for jump-if-true, false for jump-if-false.
func (in *Interpreter) execJumpCond(instr bytecode.Instruction, want bool) error {
	if in.atomIsTrue(read(instr.B)) == want {
		in.pc = instr.A.Target
	}
	return nil
}

// execIO implements p_print/p_read: A is print's source operand, or read's
// destination operand.
func (in *Interpreter) execIO(instr bytecode.Instruction) error {
	switch instr.Op {
	case bytecode.OpPrint:
		fmt.Fprintln(in.Stdout, displayValue(read(instr.A)))
		return nil
	case bytecode.OpRead:
		if in.Stdin == nil || !in.Stdin.Scan() {
			store(instr.A, value.Omega)
			return nil
		}
		store(instr.A, value.NewString(in.Stdin.Text()))
		return nil
	default:
		return vmerr.Typef("unhandled I/O opcode %s", instr.Op)
	}
}

// displayValue renders a specifier the way the source language's print
// statement would, used by OpPrint. The abend diagnostic does not use it:
// abend prints only the error's own text, not the offending operand.
func displayValue(s value.Specifier) string {
	switch s.Form() {
	case value.FormOmega:
		return "OM"
	case value.FormShortInt:
		return fmt.Sprintf("%d", s.ShortIntValue())
	case value.FormBigInt:
		return s.Payload().(*value.BigIntPayload).V.String()
	case value.FormReal:
		return fmt.Sprintf("%g", s.RealValue())
	case value.FormAtom:
		return fmt.Sprintf("'%d", s.AtomNumber())
	case value.FormString:
		return s.Payload().(*value.StringPayload).Text()
	case value.FormSet:
		var parts []string
		trie.AsSet(s).Range(func(c *trie.Cell) bool {
			parts = append(parts, displayValue(c.Key))
			return true
		})
		return "{" + strings.Join(parts, ", ") + "}"
	case value.FormMap:
		var parts []string
		trie.AsMap(s).Range(func(c *trie.Cell) bool {
			if c.Multi != nil {
				c.Multi.Range(func(m *trie.Cell) bool {
					parts = append(parts, displayValue(c.Key)+" |-> "+displayValue(m.Key))
					return true
				})
				return true
			}
			parts = append(parts, displayValue(c.Key)+" |-> "+displayValue(c.Val))
			return true
		})
		return "{" + strings.Join(parts, ", ") + "}"
	case value.FormTuple:
		var parts []string
		trie.AsTuple(s).Range(func(_ int, v value.Specifier) bool {
			parts = append(parts, displayValue(v))
			return true
		})
		return "[" + strings.Join(parts, ", ") + "]"
	case value.FormObject:
		return fmt.Sprintf("<%s instance>", object.AsObject(s).Class.Name)
	case value.FormProcedure:
		return "<procedure>"
	default:
		return s.Form().String()
	}
}
