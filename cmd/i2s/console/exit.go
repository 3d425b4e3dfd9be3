package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Exit builds the error returned by a command action to end the program
// with code.
func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}
