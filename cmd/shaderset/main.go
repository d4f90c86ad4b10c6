// Command shaderset inspects, packs and validates shader sets.
//
// Usage:
//
//	shaderset reflect  [--format json|yaml] MANIFEST
//	shaderset pack     [--compression zstd|lz4|none] -o OUT MANIFEST
//	shaderset unpack   -o DIR PACK
//	shaderset validate MANIFEST|PACK
//
// A manifest is a YAML file listing the stages of one set; see Manifest.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/gogpu/shaderset"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type command struct {
	name    string
	summary string
	run     func(flags *pflag.FlagSet, args []string, stdout io.Writer) error
	flags   func(flags *pflag.FlagSet)
}

var commands = []command{
	{name: "reflect", summary: "print the merged pipeline layout of a manifest", run: runReflect, flags: reflectFlags},
	{name: "pack", summary: "encode a manifest into a shader pack", run: runPack, flags: packFlags},
	{name: "unpack", summary: "write the shaders of a pack as .spv files", run: runUnpack, flags: unpackFlags},
	{name: "validate", summary: "build, load and dispose a set on a noop GPU device", run: runValidate},
}

var errUsage = errors.New("usage")

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		if len(args) == 0 {
			return errUsage
		}
		return nil
	}

	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		flags := pflag.NewFlagSet(cmd.name, pflag.ContinueOnError)
		flags.SetOutput(stderr)
		verbose := flags.BoolP("verbose", "v", false, "log module lifecycle to stderr")
		if cmd.flags != nil {
			cmd.flags(flags)
		}
		if err := flags.Parse(args[1:]); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				return nil
			}
			return err
		}
		if *verbose {
			shaderset.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
			defer shaderset.SetLogger(nil)
		}
		return cmd.run(flags, flags.Args(), stdout)
	}
	printUsage(stderr)
	return fmt.Errorf("unknown command %q", args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: shaderset COMMAND [flags] ARGS")
	fmt.Fprintln(w)
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", cmd.name, cmd.summary)
	}
}

func oneArg(args []string, what string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one %s, got %d arguments", what, len(args))
	}
	return args[0], nil
}
