// Package manifest builds ledger transaction manifests from a structured
// instruction list and renders them in the manifest text grammar.
package manifest

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/lp-portfolio/internal/apperror"
)

// Instruction is one manifest instruction.
type Instruction struct {
	Name string
	Args []Value
}

// Manifest is a validated instruction list.
type Manifest struct {
	Instructions []Instruction
}

// String renders the manifest, one argument per line.
func (m Manifest) String() string {
	var sb strings.Builder
	for _, ins := range m.Instructions {
		sb.WriteString(ins.Name)
		sb.WriteString("\n")
		for _, arg := range ins.Args {
			sb.WriteString("    ")
			arg.render(&sb)
			sb.WriteString("\n")
		}
		sb.WriteString(";\n")
	}
	return sb.String()
}

// Builder accumulates instructions. Methods chain; the first problem is
// reported by Build.
type Builder struct {
	instructions []Instruction
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// CallMethod calls method on the component at address.
func (b *Builder) CallMethod(address, method string, args ...Value) *Builder {
	all := make([]Value, 0, len(args)+2)
	all = append(all, Address(address), String(method))
	all = append(all, args...)
	return b.add("CALL_METHOD", all...)
}

// TakeAllFromWorktop moves all of resource on the worktop into bucket.
func (b *Builder) TakeAllFromWorktop(resource, bucket string) *Builder {
	return b.add("TAKE_ALL_FROM_WORKTOP", Address(resource), Bucket(bucket))
}

// TakeFromWorktop moves amount of resource into bucket.
func (b *Builder) TakeFromWorktop(resource string, amount decimal.Decimal, bucket string) *Builder {
	return b.add("TAKE_FROM_WORKTOP", Address(resource), Decimal(amount), Bucket(bucket))
}

// PopFromAuthZone moves the last proof on the auth zone into proof.
func (b *Builder) PopFromAuthZone(proof string) *Builder {
	return b.add("POP_FROM_AUTH_ZONE", Proof(proof))
}

// DepositBatch deposits the entire worktop into account.
func (b *Builder) DepositBatch(account string) *Builder {
	return b.CallMethod(account, "deposit_batch", Expression(EntireWorktop))
}

func (b *Builder) add(name string, args ...Value) *Builder {
	b.instructions = append(b.instructions, Instruction{Name: name, Args: args})
	return b
}

// declares reports which argument of an instruction creates a named value.
func declares(ins Instruction) (Value, bool) {
	switch ins.Name {
	case "TAKE_ALL_FROM_WORKTOP", "TAKE_FROM_WORKTOP", "POP_FROM_AUTH_ZONE":
		return ins.Args[len(ins.Args)-1], true
	}
	return Value{}, false
}

type handleState int

const (
	handleLive handleState = iota + 1
	handleConsumed
)

// Build validates every value and the bucket/proof lifecycle: each handle is
// created once before use and consumed at most once.
func (b *Builder) Build() (Manifest, error) {
	if len(b.instructions) == 0 {
		return Manifest{}, invalid("empty manifest")
	}

	handles := map[string]handleState{}
	key := func(v Value) string { return kindNames[v.kind] + ":" + v.text }

	for i, ins := range b.instructions {
		for _, arg := range ins.Args {
			if err := arg.validate(); err != nil {
				return Manifest{}, invalid(fmt.Sprintf("instruction %d (%s): %v", i, ins.Name, err))
			}
		}

		decl, hasDecl := declares(ins)
		for j, arg := range ins.Args {
			if hasDecl && j == len(ins.Args)-1 {
				continue
			}
			var err error
			arg.walk(func(v Value) {
				if err != nil || (v.kind != kindBucket && v.kind != kindProof) {
					return
				}
				switch handles[key(v)] {
				case handleLive:
					handles[key(v)] = handleConsumed
				case handleConsumed:
					err = fmt.Errorf("%s %q used after it was consumed", kindNames[v.kind], v.text)
				default:
					err = fmt.Errorf("%s %q used before it was created", kindNames[v.kind], v.text)
				}
			})
			if err != nil {
				return Manifest{}, invalid(fmt.Sprintf("instruction %d (%s): %v", i, ins.Name, err))
			}
		}

		if hasDecl {
			if _, exists := handles[key(decl)]; exists {
				return Manifest{}, invalid(fmt.Sprintf("instruction %d (%s): %s %q declared twice", i, ins.Name, kindNames[decl.kind], decl.text))
			}
			handles[key(decl)] = handleLive
		}
	}

	out := make([]Instruction, len(b.instructions))
	copy(out, b.instructions)
	return Manifest{Instructions: out}, nil
}

func invalid(context string) error {
	return apperror.Validation(apperror.CodeManifestInvalid, context)
}
