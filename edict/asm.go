package edict

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/Plexxi/j2/bytecode"
)

// mnemonics maps the lowercase asm token for each opcode to its Op,
// grounded on the teacher's asm package doc comment table style
// (asm/asm.go), adapted to this module's opcode set instead of the
// ngaro instruction set.
var mnemonics = map[string]bytecode.Op{
	"res_dict": bytecode.ResDict, "res_code": bytecode.ResCode,
	"res_refs": bytecode.ResRefs, "res_ip": bytecode.ResIP, "res_wip": bytecode.ResWIP,
	"push": bytecode.Push, "pop": bytecode.Pop, "peek": bytecode.Peek,
	"dup": bytecode.Dup, "drop": bytecode.Drop,
	"spush": bytecode.SPush, "spop": bytecode.SPop, "speek": bytecode.SPeek,
	"lit": bytecode.Lit,
	"ref_make": bytecode.RefMake, "ref_ins": bytecode.RefIns, "ref_res": bytecode.RefRes,
	"ref_hres": bytecode.RefHres, "ref_iter": bytecode.RefIter, "ref_deq": bytecode.RefDeq,
	"deref": bytecode.Deref, "assign": bytecode.Assign, "remove": bytecode.Remove,
	"yield": bytecode.Yield, "throw": bytecode.Throw, "catch": bytecode.Catch,
	"edict": bytecode.Edict, "xml": bytecode.XML, "json": bytecode.JSON,
	"yaml": bytecode.YAML, "lisp": bytecode.Lisp, "massoc": bytecode.Massoc, "swagger": bytecode.Swagger,
	"rdlock": bytecode.RDLock, "wrlock": bytecode.WRLock, "unlock": bytecode.Unlock,
	"builtin": bytecode.Builtin,
}

// CompileAsm assembles a minimal textual form of the bytecode: one
// mnemonic per token, whitespace-separated, with `( comment )` spans
// skipped exactly as the teacher's asm package skips Ngaro asm
// comments. Extended opcodes (lit, ref_make) take their payload from an
// immediately following `[...]` bracketed literal.
func CompileAsm(src []byte) ([]byte, error) {
	toks, err := asmTokens(src)
	if err != nil {
		return nil, err
	}
	e := bytecode.NewEncoder()
	for i := 0; i < len(toks); i++ {
		name := strings.ToLower(toks[i])
		op, ok := mnemonics[name]
		if !ok {
			return nil, errors.Errorf("edict/asm: unknown mnemonic %q", toks[i])
		}
		if op == bytecode.Lit || op == bytecode.RefMake {
			i++
			if i >= len(toks) {
				return nil, errors.Errorf("edict/asm: %q requires a bracketed payload", name)
			}
			payload, ok := bracketed(toks[i])
			if !ok {
				return nil, errors.Errorf("edict/asm: %q requires a [payload] token, got %q", name, toks[i])
			}
			e.EmitExt(op, 0, payload)
			continue
		}
		e.Emit(op)
	}
	return e.Bytes(), nil
}

func bracketed(tok string) ([]byte, bool) {
	if len(tok) >= 2 && tok[0] == '[' && tok[len(tok)-1] == ']' {
		return []byte(tok[1 : len(tok)-1]), true
	}
	return nil, false
}

// asmTokens splits src on whitespace, skipping `( ... )` comments, and
// keeping a `[...]` span (which may itself contain whitespace) as one
// token.
func asmTokens(src []byte) ([]string, error) {
	var toks []string
	i := 0
	for i < len(src) {
		for i < len(src) && isSpace(src[i]) {
			i++
		}
		if i >= len(src) {
			break
		}
		switch src[i] {
		case '(':
			depth := 0
			for i < len(src) {
				if src[i] == '(' {
					depth++
				} else if src[i] == ')' {
					depth--
					i++
					if depth == 0 {
						break
					}
					continue
				}
				i++
			}
			if depth != 0 {
				return nil, errors.New("edict/asm: unterminated comment")
			}
		case '[':
			start := i
			depth := 0
			for i < len(src) {
				if src[i] == '[' {
					depth++
				} else if src[i] == ']' {
					depth--
				}
				i++
				if depth == 0 {
					break
				}
			}
			if depth != 0 {
				return nil, errors.New("edict/asm: unbalanced bracketed literal")
			}
			toks = append(toks, string(src[start:i]))
		default:
			start := i
			for i < len(src) && !isSpace(src[i]) && src[i] != '(' {
				i++
			}
			toks = append(toks, string(src[start:i]))
		}
	}
	return toks, nil
}
