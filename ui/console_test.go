package ui

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleAsk(t *testing.T) {
	var out bytes.Buffer
	p := NewConsolePrompter(strings.NewReader(" 1.2 \n\n"), &out)

	got, err := p.Ask(context.Background(), "Set Slow-Down Factor", "Please enter the new slow-down factor:", "1.05")
	require.NoError(t, err)
	assert.Equal(t, "1.2", got)
	assert.Contains(t, out.String(), "== Set Slow-Down Factor ==")
	assert.Contains(t, out.String(), "Please enter the new slow-down factor: [1.05]")

	got, err = p.Ask(context.Background(), "Set Rounds", "Please enter the new rounds:", "100")
	require.NoError(t, err)
	assert.Empty(t, got, "an empty line cancels")
}

func TestConsoleAskAtEOF(t *testing.T) {
	p := NewConsolePrompter(strings.NewReader(""), io.Discard)

	got, err := p.Ask(context.Background(), "t", "p", "1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConsoleAskCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	p := NewConsolePrompter(pr, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Ask(ctx, "t", "p", "1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The pending line goes to the next Ask.
	go func() { _, _ = pw.Write([]byte("42\n")) }()
	got, err := p.Ask(context.Background(), "t", "p", "1")
	require.NoError(t, err)
	assert.Equal(t, "42", got)
	require.NoError(t, pw.Close())
}

func TestConsoleAlert(t *testing.T) {
	var out bytes.Buffer
	NewConsolePrompter(strings.NewReader(""), &out).Alert("Invalid Input", "Rounds must be greater than zero.")
	assert.Equal(t, "! Invalid Input: Rounds must be greater than zero.\n", out.String())
}
