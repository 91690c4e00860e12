// Package flagx helps several independent parsers share one command line.
// Each parser picks out only the flags it owns and leaves the rest alone, so
// cobra subcommands, the config file loader and the config flag parser can
// all look at os.Args without tripping over each other's flags.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns the subset of args made of allowed flags and their
// values, in their original order.
//
// Two forms are recognised:
//
//	-c conf.json       flag and value as separate arguments
//	--config=conf.json flag and value joined with '='
//
// A separate value is only consumed when it does not itself start with '-'.
// Positional arguments (for example a subcommand name) are dropped.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		if name, _, joined := strings.Cut(arg, "="); joined {
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)

		if next := i + 1; next < len(args) && !strings.HasPrefix(args[next], "-") {
			filtered = append(filtered, args[next])
			i = next
		}
	}

	return filtered
}

// ConfigFileFlag returns the configuration file path passed with -c or
// -config, or an empty string when neither is present. The last occurrence
// wins.
func ConfigFileFlag() string {
	var path string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file (json or yaml)")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(os.Args[1:], []string{"-c", "-config", "--c", "--config"}))

	return path
}
