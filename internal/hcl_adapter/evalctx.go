package hcl_adapter

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/joho/godotenv"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// dotenvName is read from the project root when present.
const dotenvName = ".env"

// buildEvalContext exposes `env`, `root` and a small function library to
// expressions in the document.
func buildEvalContext(ctx context.Context, root string) (*hcl.EvalContext, error) {
	logger := ctxlog.FromContext(ctx)

	env, err := readEnv(root)
	if err != nil {
		return nil, err
	}
	logger.Debug("Evaluation environment prepared.", "env_vars", len(env))

	envVals := make(map[string]cty.Value, len(env))
	for k, v := range env {
		envVals[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env":  cty.ObjectVal(envVals),
			"root": cty.StringVal(filepath.ToSlash(root)),
		},
		Functions: map[string]function.Function{
			"upper":      stdlib.UpperFunc,
			"lower":      stdlib.LowerFunc,
			"format":     stdlib.FormatFunc,
			"join":       stdlib.JoinFunc,
			"replace":    stdlib.ReplaceFunc,
			"trimsuffix": stdlib.TrimSuffixFunc,
			"coalesce":   stdlib.CoalesceFunc,
		},
	}, nil
}

// readEnv merges the optional .env file with the process environment. The
// process environment wins.
func readEnv(root string) (map[string]string, error) {
	env := make(map[string]string)

	dotenv, err := godotenv.Read(filepath.Join(root, dotenvName))
	switch {
	case err == nil:
		for k, v := range dotenv {
			env[k] = v
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k != "" {
			env[k] = v
		}
	}
	return env, nil
}
