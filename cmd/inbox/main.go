// Inbox is a command-line front end for the thane-inbox mail engine.
//
// Each invocation builds a fresh mailbox from the configured seed
// fixture, backed by a persistent SQLite identity directory and
// settings store, and runs one command against it. Configuration is
// loaded from a single YAML file discovered automatically (see
// [config.DefaultSearchPaths]).
//
// Usage:
//
//	inbox init [dir]                 Write an example config and seed fixture
//	inbox folders                    Show folder counters
//	inbox list <folder> [query]      List a folder, newest first
//	inbox show <id>                  Open a message and mark it read
//	inbox compose|reply|reply-all|forward [id] [compose flags]
//	inbox export <id>                Print a message as RFC 5322
//	inbox directory search <text>    Search the identity directory
//	inbox directory import <file>    Import identities from a vCard file
//	inbox set <key> <value>          Persist a setting
//	inbox settings                   List persisted settings
//	inbox version                    Print version and build information
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nugget/thane-inbox/examples"
	"github.com/nugget/thane-inbox/internal/buildinfo"
)

func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the inbox command. Command output
// goes to stdout and logs to stderr, so that output such as an
// exported message can be piped. Arguments are parsed by hand to keep
// run free of flag package globals and callable from parallel tests.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case command != "":
			cmdArgs = append(cmdArgs, args[i])
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-"):
			command = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "":
		return printUsage(stdout)
	case "version":
		return runVersion(stdout, outputFmt)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	}

	cmd, ok := commands[command]
	if !ok {
		return fmt.Errorf("unknown command: %s", command)
	}

	a, err := newApp(stderr, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	return cmd(a, &output{w: stdout, format: outputFmt, command: command}, cmdArgs)
}

// output carries the writer and format for one command.
type output struct {
	w       io.Writer
	format  string
	command string
}

func (o *output) json() bool { return o.format == "json" }

func (o *output) encode(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Get()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	return nil
}

// runInit writes an example config and seed fixture into dir. Existing
// files are never overwritten.
func runInit(w io.Writer, dir string) error {
	if err := os.MkdirAll(filepath.Join(dir, "data"), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	for _, f := range []struct {
		name    string
		content []byte
	}{
		{"inbox.yaml", examples.ConfigYAML},
		{"seed.yaml", examples.SeedYAML},
	} {
		path := filepath.Join(dir, f.name)
		wrote, err := writeIfMissing(path, f.content)
		if err != nil {
			return err
		}
		if wrote {
			fmt.Fprintf(w, "  ✓ %s\n", path)
		} else {
			fmt.Fprintf(w, "  - %s (exists, kept)\n", path)
		}
	}
	return nil
}

// writeIfMissing writes content to path only if the file does not
// already exist.
func writeIfMissing(path string, content []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "inbox - mail client engine")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: inbox [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  init [dir]                  Write inbox.yaml and seed.yaml (default: .)")
	fmt.Fprintln(w, "  folders                     Show message and unread counts per folder")
	fmt.Fprintln(w, "  list <folder> [query]       List a folder; -unread, -starred narrow it")
	fmt.Fprintln(w, "  show <id>                   Open a message and mark it read")
	fmt.Fprintln(w, "  compose                     Start a new message")
	fmt.Fprintln(w, "  reply <id>                  Reply to the sender")
	fmt.Fprintln(w, "  reply-all <id>              Reply to the sender and all recipients")
	fmt.Fprintln(w, "  forward <id>                Forward with the original quoted")
	fmt.Fprintln(w, "  export <id>                 Print a message as RFC 5322")
	fmt.Fprintln(w, "  directory search <text>     Search identities")
	fmt.Fprintln(w, "  directory import <file.vcf> Import identities from vCard")
	fmt.Fprintln(w, "  set <key> <value>           Persist a setting (e.g. locale de-DE)")
	fmt.Fprintln(w, "  settings                    List persisted settings")
	fmt.Fprintln(w, "  version                     Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Compose flags:")
	fmt.Fprintln(w, "  -to, -cc, -bcc <text>       Add the best directory match (repeatable)")
	fmt.Fprintln(w, "  -subject <text>             Replace the subject")
	fmt.Fprintln(w, "  -body <text>                Text placed above any quoted content")
	fmt.Fprintln(w, "  -priority HIGH|NORMAL|LOW")
	fmt.Fprintln(w, "  -tag <tag>                  Add a tag (repeatable)")
	fmt.Fprintln(w, "  -send                       Send the draft instead of printing it")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	return nil
}
