package compiler

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `# running average
total is 0
count is 0
data is [3, 5, 10]

define half as:
    return n / 2

loop while count < length of data:
    total is total + data[count]
    count is count + 1

print of "average"
print of (total / count)
print of half of total
if converged of total:
    print of "settled"
else:
    print of why is total
`

func TestCompile(t *testing.T) {
	opts, _ := testOptions(t)
	opts.VerifyIR = true

	res, err := Compile(sampleSource, opts)
	require.NoError(t, err)

	assert.NotEmpty(t, res.Tokens)
	assert.Len(t, res.Program.Statements, 9)
	require.NotNil(t, res.Unit)

	for _, want := range []string{
		"%EigenValue = type",
		"%EigenList = type",
		"define i32 @main()",
		"@half(",
		"declare",
		"@eigen_print_str(",
		"c\"average\\00\"",
	} {
		assert.Contains(t, res.IR, want)
	}
	assert.Equal(t, res.Unit.Module.String(), res.IR)
}

func TestCompile_Prune(t *testing.T) {
	src := "define unused as:\n    return n\nprint of 1\n"

	opts, _ := testOptions(t)
	res, err := Compile(src, opts)
	require.NoError(t, err)
	assert.Contains(t, res.Unit.Symbols.Functions(), "unused")

	opts.Prune = true
	res, err = Compile(src, opts)
	require.NoError(t, err)
	assert.Empty(t, res.Unit.Symbols.Functions())
	assert.NotContains(t, res.IR, "@unused(")
}

func TestCompile_ZeroOptions(t *testing.T) {
	res, err := Compile("print of 1\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultEntryName, res.Unit.Entry.Name())
}

func TestCompile_EntryName(t *testing.T) {
	opts, _ := testOptions(t)
	opts.EntryName = "eigen_main"
	res, err := Compile("print of 1\n", opts)
	require.NoError(t, err)
	assert.Contains(t, res.IR, "@eigen_main()")
}

func TestCompile_ErrorPhases(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		phase  string
		target any
	}{
		{"Lex", "x is \"open\n", "lex", new(*LexError)},
		{"Parse", "x is is\n", "parse", new(*SyntaxError)},
		{"Lower", "print of nope\n", "lower", new(*NameError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, _ := testOptions(t)
			_, err := Compile(tt.src, opts)
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), tt.phase+": "), err.Error())
			assert.True(t, errors.As(err, tt.target), "got %T", errors.Cause(err))
		})
	}
}

func TestRenderError(t *testing.T) {
	src := "x is 1\ny is z\nprint of y\n"
	opts, _ := testOptions(t)
	_, err := Compile(src, opts)
	require.Error(t, err)

	got := RenderError(err, "demo.eigs", src)
	want := `NAME ERROR in demo.eigs at 2:6: undefined variable "z"

   1 | x is 1
   2 | y is z
     |      ^
   3 | print of y
`
	assert.Equal(t, want, got)
}

func TestRenderError_FirstLine(t *testing.T) {
	src := "x is (1"
	_, err := Compile(src, Options{})
	require.Error(t, err)

	got := RenderError(err, "", src)
	assert.True(t, strings.HasPrefix(got, "SYNTAX ERROR at 1:8: expected RPAREN, found NEWLINE"), got)
	assert.Contains(t, got, "   1 | x is (1\n")
	assert.Contains(t, got, "     |        ^\n")
}

func TestRenderError_Unpositioned(t *testing.T) {
	err := errors.New("disk on fire")
	assert.Equal(t, "disk on fire", RenderError(err, "f.eigs", "x is 1"))
}
