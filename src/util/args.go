package util

import (
	"fmt"
	"os"
)

// Options holds the parsed command line.
type Options struct {
	Src     string // Path to source file; empty means read stdin.
	Out     string // Path to output file; empty means stdout.
	Tokens  bool   // Set true if the compiler should dump the token stream and exit.
	Verbose bool   // Set true if the compiler should trace stage boundaries to stderr.
}

const appVersion = "kolga compiler 1.0"

// ParseArgs parses os.Args[1:] into an Options. The bare `kolga FILENAME`
// form is always accepted; -tokens, -v, and -o extend it.
func ParseArgs() (Options, error) {
	opt := Options{}
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "--help":
			printHelp()
			os.Exit(0)
		case "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case "-tokens":
			opt.Tokens = true
		case "-v":
			opt.Verbose = true
		case "-o":
			if i+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i])
			}
			opt.Out = args[i+1]
			i++
		default:
			if len(args[i]) > 0 && args[i][0] == '-' {
				return opt, fmt.Errorf("unexpected flag: %s", args[i])
			}
			opt.Src = args[i]
		}
	}
	return opt, nil
}

func printHelp() {
	fmt.Println("usage: kolga [-tokens] [-v] [-o FILE] [FILENAME]")
	fmt.Println("-tokens\tdump the token stream and exit")
	fmt.Println("-v\tverbose: trace compiler stage boundaries to stderr")
	fmt.Println("-o\tpath to write the generated LLVM IR to, instead of stdout")
	fmt.Println("--version\tprint the compiler version and exit")
	fmt.Println("-h, --help\tprint this message and exit")
}
