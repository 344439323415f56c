package cli

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// idArg разбирает обязательный числовой id в начале args и возвращает остаток
func idArg(args []string, what string) (int64, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") && !isNumber(args[0]) {
		return 0, nil, fmt.Errorf("missing %s", what)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id == 0 {
		return 0, nil, fmt.Errorf("invalid %s: %q", what, args[0])
	}
	return id, args[1:], nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// newFlagSet - флаги подкоманды; ошибки возвращаются, а не завершают процесс
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func noExtraArgs(fs *flag.FlagSet) error {
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return nil
}
