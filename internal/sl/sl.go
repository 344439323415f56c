// Package sl contains slog attribute helpers shared by all packages.
package sl

import (
	"fmt"
	"log/slog"
)

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Secret keeps the first 5 characters of value, used to hide tokens in logs
func Secret(key, value string) slog.Attr {
	r := "***"
	if len(value) > 5 {
		r = fmt.Sprintf("%s***", value[0:5])
	}
	if value == "" {
		r = "?"
	}
	return slog.String(key, r)
}

func Module(mod string) slog.Attr {
	return slog.String("mod", mod)
}
