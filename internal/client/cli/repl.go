package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/twosync/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Sync(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Search(ctx context.Context, query string) error
	Index(ctx context.Context) error
	Assistant(ctx context.Context) error
	Thread(ctx context.Context, message string) error
	Credentials(ctx context.Context) error
	ClearCredentials(ctx context.Context) error
	Status(ctx context.Context) error
}

const replHelp = "Available commands: sync, (l)ist, show <id>, search <query>, index, assistant, thread [message], credentials [clear], status, exit"

// runREPL starts a simple read–eval–print loop for the twosync CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. The rest of the line, trimmed
// but otherwise verbatim, is the argument. Unknown commands are reported back to the user. The loop exits
// on scanner EOF, on context cancellation, or when the user types "exit" or
// "quit".
//
// Errors returned by handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("twos %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		cmd, arg, ok := splitCommand(scanner.Text())
		if !ok {
			continue
		}

		var err error
		switch cmd {
		case "help":
			printlnFn(replHelp)

		case "sync":
			err = a.Sync(ctx)

		case "l", "list":
			err = a.List(ctx)

		case "show":
			if arg == "" {
				printlnFn("Usage: show <id>")
				continue
			}
			err = a.Show(ctx, arg)

		case "search":
			err = a.Search(ctx, arg)

		case "index":
			err = a.Index(ctx)

		case "assistant":
			err = a.Assistant(ctx)

		case "thread":
			err = a.Thread(ctx, arg)

		case "credentials":
			if arg == "clear" {
				err = a.ClearCredentials(ctx)
			} else {
				err = a.Credentials(ctx)
			}

		case "status":
			err = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		// Show already reported a missing entry.
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			printlnFn("Error:", err)
		}
	}
}

// splitCommand returns the first word of line and the rest of it with outer
// whitespace trimmed. ok is false for a blank line.
func splitCommand(line string) (cmd, arg string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", false
	}
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, "", true
	}
	return line[:i], strings.TrimSpace(line[i:]), true
}
