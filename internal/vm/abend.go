// Error/abend protocol (spec §4.10). Grounded on the teacher's top-level
// recover-and-report boundary in cmd/*/main.go, generalized from Go
// panic/recover to the escape-by-return-value discipline internal/vmerr
// establishes (every error is an ordinary Go error, never a panic).
package vm

import (
	"fmt"

	"github.com/setl2-lang/setl2vm/internal/value"
	"github.com/setl2-lang/setl2vm/internal/vmerr"
)

// errExtKey names the $ERR_EXTn slot spec §4.10 consults in a unit's
// err_ext_map, keyed by the error's taxonomy kind.
func errExtKey(k vmerr.Kind) string {
	return fmt.Sprintf("$ERR_EXT%d", k)
}

// abend implements spec §4.10: first try the current unit's user-defined
// handler for err's kind, running it to completion with a C-return so
// control falls through to the next instruction instead of escaping; if no
// handler is registered, or running it itself fails, unwind to the
// top-level frame and report.
//
// TODO: the handler's left/right/end arguments (spec: "the left/right/end
// operands are pushed") aren't reconstructable from a bare Go error at this
// boundary; vmerr.Error would need to carry the offending operands to wire
// that up. Handlers here run with no arguments until that's added.
func (in *Interpreter) abend(err error) error {
	verr, ok := vmerr.As(err)
	if ok && in.unit != nil {
		if handler, present := in.unit.ErrExtMap[errExtKey(verr.Kind)]; present && handler.Form() == value.FormProcedure {
			depth := len(in.CallStack)
			callErr := in.Call(handler, nil, nil, CallOptions{WantReturn: false})
			if callErr == nil {
				if drainErr := in.runUntilCReturn(depth); drainErr == nil {
					return nil
				}
			}
		}
	}

	in.CallStack = nil
	in.ProgramStack = nil
	fmt.Fprintf(in.Stdout, "abend: %v\n", err)
	return err
}
