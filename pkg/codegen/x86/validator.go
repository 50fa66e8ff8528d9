// Package x86 - Assembly validation for generated i386 code
package x86

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/p0c/pkg/logger"
)

// ValidationError represents an assembly validation error
type ValidationError struct {
	Line    int
	Message string
	Code    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("line %d: %s\n  %s", e.Line, e.Message, e.Code)
}

// Validator checks generated i386 assembly
type Validator struct {
	errors []*ValidationError
	warns  []*ValidationError
}

func NewValidator() *Validator {
	return &Validator{}
}

var (
	validRegs = map[string]bool{
		"%eax": true, "%ebx": true, "%ecx": true, "%edx": true,
		"%esi": true, "%edi": true, "%ebp": true, "%esp": true,
		"%al": true, "%bl": true, "%cl": true, "%dl": true,
	}

	calleeSaved = map[string]bool{"%ebx": true, "%esi": true, "%edi": true}

	validInsts = map[string]bool{
		"movl": true, "pushl": true, "popl": true, "addl": true, "subl": true,
		"negl": true, "call": true, "leave": true, "ret": true,
	}

	// Two-operand instructions whose last operand is written
	destInsts = map[string]bool{"movl": true, "addl": true, "subl": true}

	regPattern = regexp.MustCompile(`%[a-z0-9]+`)
	immPattern = regexp.MustCompile(`^\$(-?\d+)$`)
)

// Validate performs all checks on assembly and returns every problem found
func (v *Validator) Validate(assembly string) error {
	v.errors = v.errors[:0]
	v.warns = v.warns[:0]
	lines := strings.Split(assembly, "\n")

	v.validateSyntax(lines)
	v.validateRegisters(lines)
	v.validateOperands(lines)
	v.validateCallingConvention(lines)
	v.validateStackBalance(lines)

	if len(v.warns) > 0 {
		v.logWarnings()
	}
	if len(v.errors) > 0 {
		errs := make([]error, len(v.errors))
		for i, e := range v.errors {
			errs[i] = e
		}
		return fmt.Errorf("assembly validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// instruction splits an instruction line into mnemonic and operands.
// ok is false for blank lines, labels, comments and directives.
func instruction(raw string) (mnemonic string, operands []string, ok bool) {
	line := strings.TrimSpace(raw)
	if i := strings.Index(line, "#"); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if line == "" || strings.HasPrefix(line, ".") || strings.HasSuffix(line, ":") {
		return "", nil, false
	}
	rest := ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		line, rest = line[:i], strings.TrimSpace(line[i+1:])
	}
	if rest != "" {
		for _, op := range splitOperands(rest) {
			operands = append(operands, strings.TrimSpace(op))
		}
	}
	return line, operands, true
}

// splitOperands splits on commas outside parentheses
func splitOperands(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func isLabel(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasSuffix(line, ":") && !strings.HasPrefix(line, "#")
}

// validateSyntax checks labels and mnemonics
func (v *Validator) validateSyntax(lines []string) {
	for i, line := range lines {
		if isLabel(line) && strings.ContainsAny(strings.TrimSpace(line), " \t") {
			v.addError(i+1, "invalid label format (contains spaces)", line)
			continue
		}
		mnemonic, _, ok := instruction(line)
		if !ok {
			continue
		}
		if !validInsts[mnemonic] {
			v.addError(i+1, fmt.Sprintf("unknown instruction: %s", mnemonic), line)
		}
	}
}

// validateRegisters rejects anything that is not an i386 register
func (v *Validator) validateRegisters(lines []string) {
	for i, line := range lines {
		if _, _, ok := instruction(line); !ok {
			continue
		}
		for _, reg := range regPattern.FindAllString(line, -1) {
			if !validRegs[reg] {
				v.addError(i+1, fmt.Sprintf("invalid register: %s", reg), line)
			}
		}
	}
}

// validateOperands checks operand counts and addressing combinations
func (v *Validator) validateOperands(lines []string) {
	for i, line := range lines {
		mnemonic, ops, ok := instruction(line)
		if !ok {
			continue
		}

		if destInsts[mnemonic] {
			if len(ops) != 2 {
				v.addError(i+1, fmt.Sprintf("%s takes 2 operands, got %d", mnemonic, len(ops)), line)
				continue
			}
			if isImmediate(ops[1]) {
				v.addError(i+1, "immediate value cannot be destination", line)
			}
			if isMemoryOperand(ops[0]) && isMemoryOperand(ops[1]) {
				v.addError(i+1, "x86 doesn't support memory-to-memory operands", line)
			}
		}

		switch mnemonic {
		case "negl", "popl":
			if len(ops) != 1 || isImmediate(ops[0]) {
				v.addError(i+1, fmt.Sprintf("%s needs one register or memory operand", mnemonic), line)
			}
		case "pushl", "call":
			if len(ops) != 1 {
				v.addError(i+1, fmt.Sprintf("%s takes 1 operand, got %d", mnemonic, len(ops)), line)
			}
		case "leave", "ret":
			if len(ops) != 0 {
				v.addError(i+1, fmt.Sprintf("%s takes no operands", mnemonic), line)
			}
		}
	}
}

// validateCallingConvention checks that callee-saved registers are restored
func (v *Validator) validateCallingConvention(lines []string) {
	saved := make(map[string]bool)
	clobbered := make(map[string]int)

	for i, line := range lines {
		if isLabel(line) {
			saved = make(map[string]bool)
			clobbered = make(map[string]int)
			continue
		}
		mnemonic, ops, ok := instruction(line)
		if !ok {
			continue
		}

		switch {
		case mnemonic == "pushl" && len(ops) == 1 && calleeSaved[ops[0]]:
			saved[ops[0]] = true
		case mnemonic == "popl" && len(ops) == 1 && saved[ops[0]]:
			delete(saved, ops[0])
		case (destInsts[mnemonic] && len(ops) == 2 && calleeSaved[ops[1]]) ||
			(mnemonic == "negl" && len(ops) == 1 && calleeSaved[ops[0]]):
			reg := ops[len(ops)-1]
			if !saved[reg] {
				if _, seen := clobbered[reg]; !seen {
					clobbered[reg] = i + 1
				}
			}
		case mnemonic == "ret":
			for reg := range saved {
				v.addError(i+1, fmt.Sprintf("callee-saved register %s not restored", reg), line)
			}
			for reg, at := range clobbered {
				v.addError(at, fmt.Sprintf("callee-saved register %s modified without saving", reg), lines[at-1])
			}
		}
	}
}

// validateStackBalance tracks %esp in bytes from function entry.
// Call arguments must be popped before the epilogue and the frame must be
// fully unwound at ret.
func (v *Validator) validateStackBalance(lines []string) {
	depth, base := 0, -1

	for i, line := range lines {
		if isLabel(line) {
			depth, base = 0, -1
			continue
		}
		mnemonic, ops, ok := instruction(line)
		if !ok {
			continue
		}

		switch mnemonic {
		case "pushl":
			depth += 4
		case "popl":
			depth -= 4
		case "subl", "addl":
			if len(ops) == 2 && ops[1] == "%esp" {
				n, ok := immediate(ops[0])
				if !ok {
					v.addWarn(i+1, "non-constant stack adjustment", line)
					continue
				}
				if mnemonic == "subl" {
					depth += n
				} else {
					depth -= n
				}
			}
		case "movl":
			if len(ops) == 2 && ops[0] == "%esp" && ops[1] == "%ebp" {
				base = depth
			}
		case "leave":
			if base < 0 {
				v.addError(i+1, "leave without frame setup", line)
				continue
			}
			depth, base = base-4, -1
		case "ret":
			if depth != 0 {
				v.addError(i+1, fmt.Sprintf("stack imbalance at return: %d bytes", depth), line)
			}
		}

		if base >= 0 && depth < base {
			v.addError(i+1, "stack underflow below frame base", line)
		}
	}
}

// Helper functions

func (v *Validator) addError(line int, msg, code string) {
	v.errors = append(v.errors, &ValidationError{Line: line, Message: msg, Code: strings.TrimSpace(code)})
}

func (v *Validator) addWarn(line int, msg, code string) {
	v.warns = append(v.warns, &ValidationError{Line: line, Message: msg, Code: strings.TrimSpace(code)})
}

func (v *Validator) logWarnings() {
	for _, warn := range v.warns {
		logger.Warn("Assembly validation warning", "line", warn.Line, "msg", warn.Message)
	}
}

func isImmediate(operand string) bool {
	return strings.HasPrefix(operand, "$")
}

func immediate(operand string) (int, bool) {
	m := immPattern.FindStringSubmatch(operand)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

func isMemoryOperand(operand string) bool {
	return strings.Contains(operand, "(") && strings.Contains(operand, ")")
}

// ValidateProgram validates an entire generated program
func ValidateProgram(assembly string) error {
	return NewValidator().Validate(assembly)
}
