package prompt

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalcal/goalcal/internal/types"
)

// scriptedReader answers Readline from a fixed list, then returns io.EOF.
type scriptedReader struct {
	lines   []string
	prompts []string
}

func (s *scriptedReader) SetPrompt(p string) { s.prompts = append(s.prompts, p) }

func (s *scriptedReader) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

var fixedNow = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }

func TestWizard_GoalInput(t *testing.T) {
	rl := &scriptedReader{lines: []string{
		"学习西班牙语",
		"6个月",
		"", // default start date
		"1小时",
		"HIGH",
		"", // optional
	}}
	var out bytes.Buffer

	in, err := NewWizard(rl, &out, fixedNow).GoalInput(types.GoalInput{})
	require.NoError(t, err)

	assert.Equal(t, types.GoalInput{
		Goal:               "学习西班牙语",
		Timeframe:          "6个月",
		StartDate:          "2024-03-01",
		DailyTimeAvailable: "1小时",
		Priority:           types.PriorityHigh,
	}, in)
	assert.NoError(t, in.Validate())
	assert.Empty(t, out.String())
}

func TestWizard_RepromptsOnBadAnswers(t *testing.T) {
	rl := &scriptedReader{lines: []string{
		"", // required, asked again
		"跑马拉松",
		"4个月",
		"2024/03/01", // wrong format
		"2024-03-04",
		"30分钟",
		"urgent", // not a priority
		"low",
		"每周三次",
	}}
	var out bytes.Buffer

	in, err := NewWizard(rl, &out, fixedNow).GoalInput(types.GoalInput{})
	require.NoError(t, err)

	assert.Equal(t, "跑马拉松", in.Goal)
	assert.Equal(t, "2024-03-04", in.StartDate)
	assert.Equal(t, types.PriorityLow, in.Priority)
	assert.Equal(t, "每周三次", in.Description)
	assert.Contains(t, out.String(), "不能为空")
	assert.Contains(t, out.String(), "invalid priority")
}

func TestWizard_SeedProvidesDefaults(t *testing.T) {
	rl := &scriptedReader{lines: []string{"", "", "", "", "", ""}}
	seed := types.GoalInput{
		Goal:               "读完10本书",
		Timeframe:          "1年",
		StartDate:          "2024-05-01",
		DailyTimeAvailable: "1小时",
	}

	in, err := NewWizard(rl, io.Discard, fixedNow).GoalInput(seed)
	require.NoError(t, err)
	assert.Equal(t, "读完10本书", in.Goal)
	assert.Equal(t, "2024-05-01", in.StartDate)
	assert.Equal(t, types.PriorityMedium, in.Priority)
	assert.Contains(t, rl.prompts[0], "[读完10本书]")
}

func TestWizard_Aborted(t *testing.T) {
	rl := &scriptedReader{lines: []string{"学习Go"}}

	_, err := NewWizard(rl, io.Discard, fixedNow).GoalInput(types.GoalInput{})
	assert.ErrorIs(t, err, ErrAborted)
}

func TestWizard_Confirm(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"y", true},
		{" YES ", true},
		{"", false},
		{"nope", false},
	}
	for _, tt := range tests {
		rl := &scriptedReader{lines: []string{tt.line}}
		got, err := NewWizard(rl, io.Discard, fixedNow).Confirm("清空?")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "line %q", tt.line)
	}

	_, err := NewWizard(&scriptedReader{}, io.Discard, fixedNow).Confirm("清空?")
	assert.ErrorIs(t, err, ErrAborted)
}
