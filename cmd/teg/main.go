// Package main contains the cli implementation of the tool. It uses cobra
// package for cli tool implementation.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tegdb"
	"tegdb/internal/output"
)

type rootFlags struct {
	command string
	script  string
	outFile string
	mode    string
	timer   bool
	echo    bool
	quiet   bool
}

func main() {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "teg <database-path>",
		Short: "tegdb: an embedded single-file SQL database",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(args[0], flags)
		},
	}

	rootCmd.Flags().StringVarP(&flags.command, "command", "c", "", "Execute a single SQL statement and exit")
	rootCmd.Flags().StringVarP(&flags.script, "file", "f", "", "Execute a script file and exit")
	rootCmd.Flags().StringVarP(&flags.outFile, "output", "o", "", "Write results to a file instead of stdout")
	rootCmd.Flags().StringVar(&flags.mode, "mode", "table", "Output mode: table, csv, or json")
	rootCmd.Flags().BoolVar(&flags.timer, "timer", false, "Print elapsed time after each statement")
	rootCmd.Flags().BoolVar(&flags.echo, "echo", false, "Echo each statement before executing it")
	rootCmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Suppress informational output")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path string, flags *rootFlags) error {
	db, err := tegdb.Open(path, tegdb.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	formatter, err := output.NewFormatter(flags.mode)
	if err != nil {
		return err
	}

	out := os.Stdout
	if flags.outFile != "" {
		f, err := os.Create(flags.outFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	sess := &session{db: db, formatter: formatter, out: out, flags: flags, id: uuid.NewString()}

	switch {
	case flags.command != "":
		return sess.runStatement(flags.command)
	case flags.script != "":
		return sess.runScript(flags.script)
	default:
		return sess.repl()
	}
}

// session carries the state shared by one-shot, scripted, and interactive
// execution.
type session struct {
	db        *tegdb.Database
	formatter output.Formatter
	out       *os.File
	flags     *rootFlags
	id        string
}

func (s *session) runScript(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	for _, stmt := range splitStatements(string(data)) {
		if err := s.runStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// splitStatements splits a script into individual statements on top-level
// semicolons; it does not attempt to parse quoted strings, matching the
// script mode's documented scope of batching whole statements.
func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *session) runStatement(sql string) error {
	if s.flags.echo {
		fmt.Fprintln(s.out, sql)
	}

	start := time.Now()
	upper := strings.ToUpper(strings.TrimSpace(sql))
	var err error
	if strings.HasPrefix(upper, "SELECT") {
		err = s.runQuery(sql)
	} else {
		err = s.runExecute(sql)
	}
	if s.flags.timer && !s.flags.quiet {
		fmt.Fprintf(s.out, "elapsed: %s\n", time.Since(start))
	}
	return err
}

func (s *session) runQuery(sql string) error {
	res, err := s.db.Query(sql)
	if err != nil {
		return err
	}
	formatted, err := s.formatter.FormatResult(res.Columns(), res.Rows())
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, formatted)
	return nil
}

func (s *session) runExecute(sql string) error {
	affected, err := s.db.Execute(sql)
	if err != nil {
		return err
	}
	if !s.flags.quiet {
		fmt.Fprintf(s.out, "%d row(s) affected\n", affected)
	}
	return nil
}

// dotCommand is one REPL meta-command; args holds the command's trailing
// words.
type dotCommand func(s *session, args []string) error

var dotCommands = map[string]dotCommand{
	".help":   cmdHelp,
	".tables": cmdTables,
	".schema": cmdSchema,
	".mode":   cmdMode,
	".timer":  cmdTimer,
	".echo":   cmdEcho,
	".output": cmdOutput,
	".read":   cmdRead,
	".stats":  cmdStats,
	".clear":  cmdClear,
	".quit":   cmdQuit,
	".exit":   cmdQuit,
}

func (s *session) repl() error {
	reader := bufio.NewScanner(os.Stdin)
	if !s.flags.quiet {
		fmt.Fprintf(s.out, "tegdb interactive session %s. Type .help for meta-commands.\n", s.id)
	}
	for {
		fmt.Fprint(s.out, "teg> ")
		if !reader.Scan() {
			return nil
		}
		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ".") {
			fields := strings.Fields(line)
			cmd, ok := dotCommands[fields[0]]
			if !ok {
				fmt.Fprintf(s.out, "unknown meta-command %q\n", fields[0])
				continue
			}
			if err := cmd(s, fields[1:]); err == errQuit {
				return nil
			} else if err != nil {
				fmt.Fprintln(s.out, err)
			}
			continue
		}
		if err := s.runStatement(line); err != nil {
			fmt.Fprintln(s.out, err)
		}
	}
}

var errQuit = fmt.Errorf("quit")

func cmdHelp(s *session, _ []string) error {
	fmt.Fprintln(s.out, ".help               show this message")
	fmt.Fprintln(s.out, ".tables             list tables")
	fmt.Fprintln(s.out, ".schema <table>     show a table's schema")
	fmt.Fprintln(s.out, ".mode table|csv|json  set the output mode")
	fmt.Fprintln(s.out, ".timer on|off       toggle elapsed-time reporting")
	fmt.Fprintln(s.out, ".echo on|off        toggle statement echoing")
	fmt.Fprintln(s.out, ".output <file>|stdout redirect output")
	fmt.Fprintln(s.out, ".read <file>        execute a script file")
	fmt.Fprintln(s.out, ".stats              show engine statistics")
	fmt.Fprintln(s.out, ".clear              clear the screen")
	fmt.Fprintln(s.out, ".quit / .exit       leave the session")
	return nil
}

func cmdTables(s *session, _ []string) error {
	for _, name := range sortedKeys(s.db.GetTableSchemas()) {
		fmt.Fprintln(s.out, name)
	}
	return nil
}

func sortedKeys(m map[string]*tegdb.Schema) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func cmdSchema(s *session, args []string) error {
	schemas := s.db.GetTableSchemas()
	if len(args) == 0 {
		for _, name := range sortedKeys(schemas) {
			printSchema(s, schemas[name])
		}
		return nil
	}
	schema, ok := schemas[args[0]]
	if !ok {
		return fmt.Errorf("no such table: %s", args[0])
	}
	printSchema(s, schema)
	return nil
}

func printSchema(s *session, schema *tegdb.Schema) {
	fmt.Fprintf(s.out, "%s:\n", schema.Table)
	for _, c := range schema.Columns {
		fmt.Fprintf(s.out, "  %s %s\n", c.Name, c.Type.String())
	}
}

func cmdMode(s *session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf(".mode requires exactly one argument")
	}
	f, err := output.NewFormatter(args[0])
	if err != nil {
		return err
	}
	s.formatter = f
	return nil
}

func cmdTimer(s *session, args []string) error {
	return setToggle(&s.flags.timer, args)
}

func cmdEcho(s *session, args []string) error {
	return setToggle(&s.flags.echo, args)
}

func setToggle(flag *bool, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected 'on' or 'off'")
	}
	switch strings.ToLower(args[0]) {
	case "on":
		*flag = true
	case "off":
		*flag = false
	default:
		return fmt.Errorf("expected 'on' or 'off', got %q", args[0])
	}
	return nil
}

func cmdOutput(s *session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf(".output requires a file name or 'stdout'")
	}
	if args[0] == "stdout" {
		s.out = os.Stdout
		return nil
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	s.out = f
	return nil
}

func cmdRead(s *session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf(".read requires a file name")
	}
	return s.runScript(args[0])
}

func cmdStats(s *session, _ []string) error {
	fmt.Fprintf(s.out, "session %s: %d table(s)\n", s.id, len(s.db.GetTableSchemas()))
	return nil
}

func cmdClear(s *session, _ []string) error {
	fmt.Fprint(s.out, "\033[H\033[2J")
	return nil
}

func cmdQuit(_ *session, _ []string) error {
	return errQuit
}
