package archive

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/setl2-lang/setl2vm/internal/bytecode"
)

// ErrExtDump is the human-readable shape of a unit's error-extension map
// (spec §4.10), grounded on the teacher's builtins_yaml.go encode/decode
// pair. Neither the interpreter nor cmd/setlvm calls DumpErrExtMap; the
// CLI's -dump prints archived record metadata only.
type ErrExtDump struct {
	Unit    string            `yaml:"unit"`
	Entry   int               `yaml:"entry"`
	Handler map[string]string `yaml:"handlers"`
}

// DumpErrExtMap renders u's error-extension map as YAML: each key maps to
// the form of the handler specifier registered under it (a handler is
// always a procedure, but recording its form catches a malformed unit
// before it reaches the interpreter).
func DumpErrExtMap(u *bytecode.Unit) (string, error) {
	d := ErrExtDump{Unit: u.Name, Entry: u.Entry, Handler: make(map[string]string, len(u.ErrExtMap))}
	for key, v := range u.ErrExtMap {
		d.Handler[key] = v.Form().String()
	}
	out, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("archive: dump %s: %w", u.Name, err)
	}
	return string(out), nil
}
