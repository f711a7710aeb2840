package edict

import "github.com/pkg/errors"

const monoOps = "(){}<>"
const runOps = "|&!%#@/+="

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isMonoOp(b byte) bool { return indexByte(monoOps, b) >= 0 }
func isRunOp(b byte) bool  { return indexByte(runOps, b) >= 0 }

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// scanLiteral consumes a balanced `[...]` run starting at src[pos],
// grounded on original_source/edict.c's edict_balance: a nesting
// counter over '[' and ']'. Returns the enclosed bytes (without the
// brackets) and the position just past the closing bracket.
func scanLiteral(src []byte, pos int) ([]byte, int, error) {
	if src[pos] != '[' {
		return nil, pos, errors.New("edict: scanLiteral called off a '['")
	}
	depth := 0
	start := pos
	for pos < len(src) {
		switch src[pos] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				pos++
				return src[start+1 : pos-1], pos, nil
			}
		}
		pos++
	}
	return nil, pos, errors.Errorf("edict: unbalanced literal starting at byte %d", start)
}
