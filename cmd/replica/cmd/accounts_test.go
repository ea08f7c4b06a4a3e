package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/replica/internal/domain"
)

func TestParseAccounts(t *testing.T) {
	data := []byte(`
- user_id: alice
  api_key: key-alice
  api_secret: s1
  leverage: 5
- user_id: bob
  api_key: key-bob
  api_secret: s2
  active: false
  multiplier: 0
`)
	accounts, err := parseAccounts(data)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	assert.Equal(t, "alice", accounts[0].UserID)
	assert.True(t, accounts[0].Active)
	assert.Equal(t, 1.0, accounts[0].Multiplier)
	assert.Equal(t, 5, accounts[0].Leverage)

	assert.False(t, accounts[1].Active)
	assert.Equal(t, 0.0, accounts[1].Multiplier)
	assert.Equal(t, 1, accounts[1].Leverage)
}

func TestParseAccounts_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "잘못된 YAML", data: `- user_id: [`},
		{name: "비밀키 누락", data: "- user_id: a\n  api_key: k\n"},
		{name: "음수 배수", data: "- user_id: a\n  api_key: k\n  api_secret: s\n  multiplier: -1\n"},
		{name: "중복 계정", data: "- user_id: a\n  api_key: k\n  api_secret: s\n- user_id: a\n  api_key: k\n  api_secret: s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAccounts([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestPrintAccounts_HidesSecrets(t *testing.T) {
	var buf bytes.Buffer
	err := printAccounts(&buf, []domain.AccountConfig{
		{UserID: "alice", APIKey: "abcdefghijkl", APISecret: "top-secret", Active: true, Multiplier: 1.5, Leverage: 3},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "abcdef…")
	assert.NotContains(t, out, "top-secret")
	assert.NotContains(t, out, "ghijkl")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "replica version")
}
