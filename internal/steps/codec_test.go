package steps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ScriptFormat(t *testing.T) {
	input := `---
- selector: p.test
  command_type: Wait
- selector: "a#link"
  command_type: Click
- selector: ~
  command_type:
    ChangeWindowSize:
      width: 800
      height: 600
- selector: div
  command_type:
    Recursive:
      selector: input
      command_type:
        Input: input text
- command_type:
    WaitForSeconds: 1.5
`
	got, err := Parse([]byte(input))
	require.NoError(t, err)

	want := []Step{
		{Selector: "p.test", Kind: WaitForSelector{}},
		{Selector: "a#link", Kind: Click{}},
		{Kind: ResizeWindow{Width: 800, Height: 600}},
		{Selector: "div", Kind: Descend{Child: &Step{Selector: "input", Kind: TypeText{Text: "input text"}}}},
		{Kind: SleepSeconds{Seconds: 1.5}},
	}
	assert.Equal(t, want, got)
}

func TestParse_WaitForSecondsWithSelectorIsBoundedWait(t *testing.T) {
	got, err := Parse([]byte(`
- selector: "#done"
  command_type:
    WaitForSeconds: 10
`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, WaitUpTo(10), got[0].Kind)
}

func TestParse_ZeroWaitKeepsItsBound(t *testing.T) {
	input := []byte("- selector: \"#done\"\n  command_type:\n    WaitForSeconds: 0\n")
	got, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, WaitUpTo(0), got[0].Kind)
	assert.NotEqual(t, WaitForSelector{}, got[0].Kind)

	out, err := Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(out), "WaitForSeconds: 0")
	assert.NotContains(t, string(out), "Wait\n")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "unknown command",
			input:   "- command_type: Hover",
			wantErr: `unknown command type "Hover"`,
		},
		{
			name:    "missing command type",
			input:   "- selector: a",
			wantErr: "command_type is required",
		},
		{
			name:    "payload command without value",
			input:   "- command_type: GoTo",
			wantErr: "GoTo needs a value",
		},
		{
			name:    "unit command with value",
			input:   "- command_type:\n    Click: now",
			wantErr: `"Click" takes no value`,
		},
		{
			name:    "two commands in one record",
			input:   "- command_type:\n    GoTo: a\n    Input: b",
			wantErr: "exactly one command",
		},
		{
			name:    "bad window index",
			input:   "- command_type:\n    ChangeWindow: first",
			wantErr: "cannot unmarshal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMarshal_RoundTripAllKinds(t *testing.T) {
	nested := []Step{
		{Kind: NavigateTo{URL: "https://example.com/login"}},
		{Kind: ResizeWindow{Width: 1280, Height: 720}},
		{Selector: "footer", Kind: ScrollSelectorIntoView{}},
		{Kind: SleepSeconds{Seconds: 0.25}},
		{Kind: SwitchToWindowIndex{Index: 1}},
		{Kind: LeaveFrame{}},
		{Kind: DumpPageSource{}},
		{Selector: "#ready", Kind: WaitForSelector{}},
		{Selector: "#slow", Kind: WaitUpTo(12.5)},
		{Selector: "input[name=q]", Kind: ClearField{}},
		{Selector: "iframe#pay", Kind: EnterFrame{}},
		{Selector: "a.next", Kind: ClickUntilURLChanges{}},
		{Selector: "button.more", Kind: ClickUntilPageSourceChanges{}},
		{Selector: "button[type=submit]", Kind: Click{}},
		{Selector: "textarea", Kind: TypeText{Text: "line one\nline: two"}},
		{Selector: "main", Kind: Descend{}},
		{Selector: "h1", Kind: AssertPresent{}},
		{Selector: "form", Kind: Descend{Child: &Step{
			Selector: "fieldset",
			Kind: Descend{Child: &Step{
				Selector: "input",
				Kind:     TypeText{Text: "deep"},
			}},
		}}},
		{Kind: Loop{Steps: []Step{
			{Selector: "a", Kind: Click{}},
			{Kind: Loop{Steps: []Step{
				{Selector: "ul", Kind: Descend{Child: &Step{Selector: "li", Kind: AssertPresent{}}}},
			}}},
		}}},
	}

	data, err := Marshal(nested)
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, nested, back)

	again, err := Marshal(back)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestMarshal_EmptyLoop(t *testing.T) {
	data, err := Marshal([]Step{{Kind: Loop{}}})
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, back, 1)
	loop, ok := back[0].Kind.(Loop)
	require.True(t, ok)
	assert.Empty(t, loop.Steps)
}

func TestMarshal_OmitsEmptySelector(t *testing.T) {
	data, err := Marshal([]Step{{Kind: NavigateTo{URL: "https://x"}}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "selector")
	assert.Contains(t, string(data), "GoTo: https://x")
}

func TestMarshal_NilKind(t *testing.T) {
	_, err := Marshal([]Step{{Selector: "a"}})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("- command_type:\n    GoTo: https://x\n"), 0o644))
	list, err := Load(good)
	require.NoError(t, err)
	assert.Equal(t, []Step{{Kind: NavigateTo{URL: "https://x"}}}, list)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- command_type: Click\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrMissingSelector)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
