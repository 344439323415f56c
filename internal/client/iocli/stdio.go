package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type Stdio struct {
	in    *bufio.Reader
	out   io.Writer
	inFd  int
	isTTY bool
}

func NewStdio() IO {
	return newStdio(os.Stdin, os.Stdout)
}

func newStdio(in *os.File, out io.Writer) *Stdio {
	fd := int(in.Fd())
	return &Stdio{
		in:    bufio.NewReader(in),
		out:   out,
		inFd:  fd,
		isTTY: term.IsTerminal(fd),
	}
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	input, err := s.in.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// ReadSecret при перенаправленном stdin (echo key | ledgerctl login) читает строку как есть
func (s *Stdio) ReadSecret(prompt string) (string, error) {
	if !s.isTTY {
		return s.ReadInput(prompt)
	}
	s.Printf("%s", prompt)
	b, err := term.ReadPassword(s.inFd)
	s.Println("")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
