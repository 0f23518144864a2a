package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Conn is the server connection the REPL issues commands over.
// Satisfied by connection.Client.
type Conn interface {
	Do(cmd string) (string, error)
	Keys() ([]string, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	conn      Conn
	input     io.Reader
	output    io.Writer
	completer *Completer
	history   *History
}

// New creates a new REPL instance talking to the given connection.
func New(conn Conn) *REPL {
	return &REPL{
		conn:      conn,
		input:     os.Stdin,
		output:    os.Stdout,
		completer: NewCompleter(),
		history:   NewHistory(),
	}
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	_ = r.history.Load()
	defer func() { _ = r.history.Save() }()

	reader := bufio.NewReader(r.input)

	for {
		fmt.Fprint(r.output, "merklekv> ")

		line, err := reader.ReadString('\n')
		if err == io.EOF {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.history.Add(line)

		if line == "exit" || line == "quit" {
			return nil
		}
		if line == "help" {
			r.printHelp()
			continue
		}

		if err := r.execute(line); err != nil {
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
	}
}

// execute sends one command line to the server and prints the
// response. KEYS gets its multi-line response expanded.
func (r *REPL) execute(line string) error {
	if strings.EqualFold(strings.TrimSpace(line), "KEYS") {
		keys, err := r.conn.Keys()
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(r.output, k)
		}
		return nil
	}

	resp, err := r.conn.Do(line)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.output, resp)
	return nil
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.output, "Commands:")
	for _, cmd := range r.completer.commands {
		fmt.Fprintln(r.output, "  "+cmd)
	}
}
