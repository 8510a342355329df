// Package flagx picks the server's own flags out of a command line that may
// carry flags for other components, so each flag.FlagSet only ever sees
// arguments it knows.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs keeps the arguments of args that belong to one of the flags in
// allowed, together with their values. Both "-store redis" and
// "-store=redis" are recognised, and a flag matches whether it is written
// with one dash or two. Filtering stops at a "--" terminator.
//
// A value is taken from the next argument only when it does not start with
// a dash; boolean flags should therefore use the "-flag=value" form.
func FilterArgs(args []string, allowed []string) []string {
	names := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		names[flagName(f)] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, hasValue := strings.Cut(arg, "=")
		if _, ok := names[flagName(name)]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if hasValue {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

func flagName(f string) string {
	return strings.TrimLeft(f, "-")
}

// ConfigFile returns the config file named by -c or -config in args, or ""
// when neither is given. The last occurrence wins.
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to the JSON or YAML config file")
	fs.StringVar(&path, "c", "", "path to the config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
