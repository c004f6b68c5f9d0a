package template

import (
	"fmt"
	"regexp"
)

var refRe = regexp.MustCompile(`\{\{\s*(outputs|paths|env)\.([A-Za-z0-9_]+)\s*\}\}`)

// Context holds available values for template resolution.
type Context struct {
	Outputs map[string]string // artifact key → absolute path
	Paths   map[string]string // output_dir, work_dir
	Env     map[string]string // resolved credentials and collaborator env
}

// Resolve replaces all {{outputs.X}}, {{paths.Y}} and {{env.Z}} in s.
func Resolve(s string, ctx *Context) (string, error) {
	var resolveErr error

	result := refRe.ReplaceAllStringFunc(s, func(match string) string {
		m := refRe.FindStringSubmatch(match)
		scope, name := m[1], m[2]
		var vals map[string]string
		switch scope {
		case "outputs":
			vals = ctx.Outputs
		case "paths":
			vals = ctx.Paths
		case "env":
			vals = ctx.Env
		}
		val, ok := vals[name]
		if !ok {
			if resolveErr == nil {
				resolveErr = fmt.Errorf("unresolved %s reference %q", scope, name)
			}
			return match
		}
		return val
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return result, nil
}

// ResolveAll resolves every element of args.
func ResolveAll(args []string, ctx *Context) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		r, err := Resolve(a, ctx)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}
