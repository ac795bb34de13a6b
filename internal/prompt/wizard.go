// Package prompt collects a goal interactively, one field per line.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/goalcal/goalcal/internal/types"
)

// ErrAborted is returned when the user interrupts or closes input.
var ErrAborted = errors.New("input aborted")

// LineReader is the subset of *readline.Instance the wizard uses.
type LineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
}

// Wizard asks for each GoalInput field in turn.
type Wizard struct {
	rl  LineReader
	out io.Writer
	now func() time.Time
}

// NewWizard wraps an existing reader. now supplies the default start date.
func NewWizard(rl LineReader, out io.Writer, now func() time.Time) *Wizard {
	if now == nil {
		now = time.Now
	}
	return &Wizard{rl: rl, out: out, now: now}
}

// NewTerminal opens a readline instance on the controlling terminal. The
// caller closes it.
func NewTerminal() (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return rl, nil
}

// field describes one question. validate may be nil.
type field struct {
	label    string
	def      string
	optional bool
	validate func(string) error
}

// GoalInput asks for every field, prefilling answers from seed. Blank
// answers take the shown default; required fields are asked again until
// answered.
func (w *Wizard) GoalInput(seed types.GoalInput) (types.GoalInput, error) {
	in := seed
	if in.StartDate == "" {
		in.StartDate = w.now().Format(types.DateLayout)
	}
	if in.Priority == "" {
		in.Priority = types.PriorityMedium
	}

	steps := []struct {
		f    field
		dest *string
	}{
		{field{label: "目标", def: in.Goal}, &in.Goal},
		{field{label: "时间范围 (如 3个月)", def: in.Timeframe}, &in.Timeframe},
		{field{label: "开始日期 (YYYY-MM-DD)", def: in.StartDate, validate: validateDate}, &in.StartDate},
		{field{label: "每日可用时间 (如 2小时)", def: in.DailyTimeAvailable}, &in.DailyTimeAvailable},
		{field{label: "优先级 (low/medium/high)", def: string(in.Priority), validate: validatePriority}, nil},
		{field{label: "补充说明", def: in.Description, optional: true}, &in.Description},
	}

	for _, step := range steps {
		answer, err := w.ask(step.f)
		if err != nil {
			return types.GoalInput{}, err
		}
		if step.dest != nil {
			*step.dest = answer
		} else {
			in.Priority = types.Priority(strings.ToLower(answer))
		}
	}
	return in, nil
}

// Confirm asks a yes/no question; anything but y/yes is no.
func (w *Wizard) Confirm(question string) (bool, error) {
	w.rl.SetPrompt(question + " [y/N]: ")
	line, err := w.rl.Readline()
	if err != nil {
		return false, ErrAborted
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (w *Wizard) ask(f field) (string, error) {
	cyan := color.New(color.FgCyan).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	prompt := f.label
	if f.def != "" {
		prompt += fmt.Sprintf(" [%s]", f.def)
	}
	w.rl.SetPrompt(cyan(prompt + ": "))

	for {
		line, err := w.rl.Readline()
		if err != nil {
			// Ctrl+C and Ctrl+D both abandon the goal
			return "", ErrAborted
		}

		answer := strings.TrimSpace(line)
		if answer == "" {
			answer = f.def
		}
		if answer == "" && !f.optional {
			fmt.Fprintf(w.out, "%s %s不能为空\n", red("✗"), f.label)
			continue
		}
		if answer != "" && f.validate != nil {
			if err := f.validate(answer); err != nil {
				fmt.Fprintf(w.out, "%s %v\n", red("✗"), err)
				continue
			}
		}
		return answer, nil
	}
}

func validateDate(s string) error {
	_, err := types.ParseDate(s)
	return err
}

func validatePriority(s string) error {
	if !types.Priority(strings.ToLower(s)).IsValid() {
		return fmt.Errorf("invalid priority: %s", s)
	}
	return nil
}
