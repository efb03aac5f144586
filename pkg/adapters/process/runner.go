package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/aretw0/toolserve/pkg/domain"
	"github.com/aretw0/toolserve/pkg/registry"
	"github.com/aretw0/toolserve/pkg/schema"
)

// ArgEnvPrefix prefixes the environment variables carrying arguments.
const ArgEnvPrefix = "TOOLSERVE_ARG_"

// DefaultTimeout bounds a command that declares no timeout.
const DefaultTimeout = 30 * time.Second

// Handler runs the configured command for each invocation.
//
// Arguments are never spliced into the command line. Each one is passed as
// TOOLSERVE_ARG_<NAME> (scalars verbatim, lists and maps as JSON), which
// rules out flag injection. Stdout is the result; a non-zero exit is a
// tool failure carrying stderr.
func Handler(cfg ToolConfig) registry.Handler {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(ctx context.Context, args schema.Args) domain.Result {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
		cmd.Dir = cfg.Dir
		cmd.Env = append(cmd.Environ(), environment(cfg.Environment, args)...)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return domain.Failuref("%s timed out after %s", cfg.Name, timeout)
			}
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				return domain.Failuref("execution failed: %v", err)
			}
			return domain.Failuref("execution failed: %v: %s", err, msg)
		}

		return domain.Success(decodeOutput(cfg.Returns, stdout.String()))
	}
}

// Register adds every configured tool to reg, in order.
func Register(reg *registry.Registry, tools []ToolConfig) error {
	for _, t := range tools {
		if err := reg.Register(t.Descriptor(), Handler(t)); err != nil {
			return fmt.Errorf("process tool %q: %w", t.Name, err)
		}
	}
	return nil
}

func environment(static map[string]string, args schema.Args) []string {
	env := make([]string, 0, len(static)+len(args))
	for k, v := range static {
		env = append(env, k+"="+v)
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		env = append(env, ArgEnvPrefix+strings.ToUpper(k)+"="+encodeArg(args[k]))
	}
	return env
}

func encodeArg(v any) string {
	switch v.(type) {
	case nil:
		return ""
	case []any, map[string]any:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return cast.ToString(v)
}

// decodeOutput returns stdout trimmed. For non-text tools, JSON output is
// decoded so the structured result carries the value, not its text.
func decodeOutput(returns domain.Type, out string) any {
	trimmed := strings.TrimSpace(out)
	if returns == "" || returns == domain.TypeText || returns == domain.TypeString {
		return trimmed
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		return v
	}
	return trimmed
}
