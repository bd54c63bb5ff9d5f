package app

import (
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"
	"golang.org/x/term"

	"github.com/fpt/codeassist/pkg/message"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// WriteToolResult prints the result envelope, indented when pretty is set.
// Results that are not JSON are printed as-is.
func WriteToolResult(w io.Writer, result message.ToolResult, pretty bool) error {
	text := result.Text
	if text == "" {
		text = result.Error
	}
	if pretty && gjson.Valid(text) {
		text = gjson.Get(text, "@pretty").Raw
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
