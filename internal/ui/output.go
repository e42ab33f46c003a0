package ui

import (
	"fmt"
	"os"
)

func OK(msg string) {
	t := Current()
	fmt.Println(t.Success.Render(t.SymDone + " " + msg))
}

func Fail(msg string) {
	fmt.Fprintln(os.Stderr, Current().Error.Render("✖ "+msg))
}

// Hint prints a muted follow-up line on stderr.
func Hint(msg string) {
	fmt.Fprintln(os.Stderr, Current().Muted.Render(msg))
}
