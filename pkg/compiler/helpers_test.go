package compiler

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// testOptions returns default options with a discarding logger whose
// entries are captured by the returned hook.
func testOptions(t *testing.T) (Options, *logtest.Hook) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	opts := DefaultOptions()
	opts.Logger = log
	return opts, hook
}

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	tokens, err := Lex(src)
	require.NoError(t, err)
	prog, err := Parse(tokens)
	require.NoError(t, err)
	return prog
}

func mustLower(t *testing.T, src string) *Unit {
	t.Helper()
	opts, _ := testOptions(t)
	unit, err := Lower(mustParse(t, src), opts)
	require.NoError(t, err)
	require.NoError(t, Verify(unit.Module))
	return unit
}

func lowerErr(t *testing.T, src string) error {
	t.Helper()
	opts, _ := testOptions(t)
	_, err := Lower(mustParse(t, src), opts)
	require.Error(t, err)
	return err
}

func tokenTypes(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}
