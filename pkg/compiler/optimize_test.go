package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defNames(p *Program) []string {
	var names []string
	for _, s := range p.Statements {
		if f, ok := s.(*FunctionDef); ok {
			names = append(names, f.Name)
		}
	}
	return names
}

func TestDeadCodeElimination(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "Unused Function Removed",
			src: `define used as:
    return n
define unused as:
    return n
print of used of 1
`,
			want: []string{"used"},
		},
		{
			name: "Transitive Calls Kept",
			src: `define a as:
    return b of n
define b as:
    return c of n
define c as:
    return n
define d as:
    return n
x is a of 1
`,
			want: []string{"a", "b", "c"},
		},
		{
			name: "Calls In Nested Control Flow",
			src: `define f as:
    return n
define g as:
    return n
i is 0
loop while i < 1:
    if i = 0:
        i is f of i
    else:
        i is [g of 1][0]
`,
			want: []string{"f", "g"},
		},
		{
			name: "Recursion Alone Is Not Reachable",
			src: `define loopy as:
    return loopy of n
print of 1
`,
			want: nil,
		},
		{
			name: "Nested Definitions Follow Their Parent",
			src: `define outer as:
    define inner as:
        return helper of n
    return inner of n
define helper as:
    return n
print of outer of 2
`,
			want: []string{"outer", "helper"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := mustParse(t, tt.src)
			before := len(prog.Statements)

			pruned := PruneUnused(prog)
			assert.Equal(t, tt.want, defNames(pruned))
			assert.Len(t, prog.Statements, before, "input must not be modified")
		})
	}
}

func TestCollectDefs(t *testing.T) {
	prog := mustParse(t, `define a as:
    define b as:
        return n
    return n
if 1:
    define c as:
        return n
loop while 0:
    define d as:
        return n
`)
	var names []string
	for _, d := range collectDefs(prog.Statements) {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, names)
}
