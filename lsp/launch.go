package lsp

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Launch starts a language server subprocess speaking LSP over stdio and connects a
// client to it. Closing the client waits for the process to exit.
func Launch(ctx context.Context, command string, args []string, stderr io.Writer, opts ...ClientOption) (*Client, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	err = cmd.Start()
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", command, err)
	}

	c := NewClient(ctx, &readWriteCloser{stdout, stdin}, opts...)
	c.closer = cmd.Wait

	return c, nil
}

// readWriteCloser wraps separate reader/writer into io.ReadWriteCloser.
type readWriteCloser struct {
	io.Reader
	io.Writer
}

func (rwc *readWriteCloser) Close() error {
	// Close writer if it's closeable
	if c, ok := rwc.Writer.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
