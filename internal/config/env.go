package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/a8m/envsubst/parse"
)

// Template variables exposed to agent.command, agent.url and server.args.
const (
	VarJudgeIP   = "JUDGE_IP"
	VarJudgePort = "JUDGE_PORT"
	VarAgentPort = "AGENT_PORT"
)

// Vars holds the resolved launch values.
type Vars struct {
	IP        string
	Port      int
	AgentPort int
}

// Environ returns the vars as KEY=VALUE pairs for exec.Cmd.Env.
func (v Vars) Environ() []string {
	return []string{
		VarJudgeIP + "=" + v.IP,
		VarJudgePort + "=" + strconv.Itoa(v.Port),
		VarAgentPort + "=" + strconv.Itoa(v.AgentPort),
	}
}

// Expand substitutes ${VAR} references in text. Launch vars take precedence
// over the process environment, and unset variables are an error so typos in
// judgeup.yaml surface before anything is announced.
func Expand(text string, vars Vars) (string, error) {
	env := append(vars.Environ(), os.Environ()...)
	out, err := parse.New("template", env, &parse.Restrictions{NoUnset: true}).Parse(text)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", text, err)
	}
	return out, nil
}

// ExpandAll expands every string in list.
func ExpandAll(list []string, vars Vars) ([]string, error) {
	out := make([]string, 0, len(list))
	for _, s := range list {
		expanded, err := Expand(s, vars)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded)
	}
	return out, nil
}

// LoadEnvFile reads a file in KEY=VALUE format and returns the pairs.
// Blank lines and # comments are skipped; surrounding quotes are removed.
func LoadEnvFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open env file: %w", err)
	}
	defer f.Close()

	var env []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		env = append(env, key+"="+value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return env, nil
}
