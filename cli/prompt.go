package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/rbwtech/ovpn-client/common"
	"github.com/rbwtech/ovpn-client/vpn"
)

// TerminalPrompt asks for VPN credentials on the terminal. Secrets are read
// without echo when the input is a terminal.
type TerminalPrompt struct {
	in  *bufio.Reader
	out io.Writer
	fd  int // -1 when input is not a terminal
}

// NewTerminalPrompt creates a prompt reading from in and writing to out.
func NewTerminalPrompt(in io.Reader, out io.Writer) *TerminalPrompt {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &TerminalPrompt{in: bufio.NewReader(in), out: out, fd: fd}
}

// Prompt implements vpn.CredentialPrompt. An empty username or end of
// input cancels.
func (p *TerminalPrompt) Prompt(ctx context.Context, profile string) (vpn.CredentialInput, error) {
	if ctx.Err() != nil {
		return vpn.CredentialInput{}, common.ErrPromptCancelled
	}

	fmt.Fprintf(p.out, "Credentials for %s\n", profile)
	username, err := p.ReadLine("Username: ")
	if err != nil || username == "" {
		return vpn.CredentialInput{}, common.ErrPromptCancelled
	}
	password, err := p.ReadSecret("Password: ")
	if err != nil {
		return vpn.CredentialInput{}, common.ErrPromptCancelled
	}
	remember, err := p.Confirm("Remember these credentials?", false)
	if err != nil {
		return vpn.CredentialInput{}, common.ErrPromptCancelled
	}

	return vpn.CredentialInput{
		Credentials: common.Credentials{Username: username, Password: password},
		Remember:    remember,
	}, nil
}

// ReadLine prints label and returns the trimmed line typed.
func (p *TerminalPrompt) ReadLine(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadSecret reads a line without echo.
func (p *TerminalPrompt) ReadSecret(label string) (string, error) {
	if p.fd < 0 {
		return p.ReadLine(label)
	}
	fmt.Fprint(p.out, label)
	secret, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(secret)), nil
}

// Confirm asks a yes/no question.
func (p *TerminalPrompt) Confirm(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	answer, err := p.ReadLine(fmt.Sprintf("%s %s ", question, hint))
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return def, nil
	}
}
