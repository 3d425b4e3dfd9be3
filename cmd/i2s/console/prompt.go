package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

const (
	Yes = "y"
	No  = "n"
)

var yesNoConstraints = []string{No, Yes}

// Asker reads one answer to a question.
type Asker func(question string) (string, error)

// ReadLine asks on the terminal.
func ReadLine(question string) (string, error) {
	rl, err := readline.New(question)
	if err != nil {
		return "", err
	}
	defer rl.Close()
	return rl.Readline()
}

// Prompter asks questions constrained to a set of answers, the first one
// being the default.
type Prompter struct {
	Ask Asker
}

func NewPrompter() *Prompter {
	return &Prompter{Ask: ReadLine}
}

func (p *Prompter) YesOrNo(question string) (bool, error) {
	res, err := p.Choose(question, yesNoConstraints...)
	return res == Yes, err
}

// Choose returns one of constraints. An empty or unknown answer selects the
// first constraint.
func (p *Prompter) Choose(question string, constraints ...string) (string, error) {
	if len(constraints) == 0 {
		return p.Ask(question + " ")
	}
	var prompt strings.Builder
	prompt.WriteString(question)
	prompt.WriteString(" [")
	prompt.WriteString(strings.ToUpper(constraints[0]))
	for i := 1; i < len(constraints); i++ {
		prompt.WriteString("/")
		prompt.WriteString(constraints[i])
	}
	prompt.WriteString("]: ")
	response, err := p.Ask(prompt.String())
	if err != nil {
		return "", err
	}
	normalized := strings.ToLower(strings.TrimSpace(response))
	for _, c := range constraints {
		if normalized == c {
			return normalized, nil
		}
	}
	// no constraint matched, return default
	return constraints[0], nil
}

// Uint asks for a positive number, def being used on empty input.
func (p *Prompter) Uint(question string, def uint64, bits int) (uint64, error) {
	response, err := p.Ask(fmt.Sprintf("%s [%d]: ", question, def))
	if err != nil {
		return 0, err
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(response, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", response, err)
	}
	return v, nil
}
