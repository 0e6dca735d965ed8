// Package script compiles YAML browser scripts into runnable steps.
//
// A script is a list of instructions, each a single-key mapping:
//
//	name: login
//	vars:
//	  base: https://example.com
//	steps:
//	  - navigate: ${base}/login
//	  - type: {name: user, text: alice}
//	  - click: {id: submit}
//	  - wait_visible: {css: h1.welcome, timeout: 5s}
//	  - assert_url: "${base}/home*"
//	  - context:
//	      label: profile
//	      steps:
//	        - assert_text: {css: h1, contains: alice}
//
// Text fields may reference vars, and any value set with SetConfig, as
// ${name}.
package script

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/stepwise/pkg/browse"
	"github.com/entrhq/stepwise/pkg/step"
)

// Script is a parsed script file.
type Script struct {
	Name  string            `yaml:"name"`
	Vars  map[string]string `yaml:"vars"`
	Steps []Instruction     `yaml:"steps"`
}

// Instruction is one script step. Exactly one field is set.
type Instruction struct {
	Navigate    string          `yaml:"navigate,omitempty"`
	Click       *Target         `yaml:"click,omitempty"`
	Type        *Target         `yaml:"type,omitempty"`
	Clear       *Target         `yaml:"clear,omitempty"`
	AssertText  *Target         `yaml:"assert_text,omitempty"`
	AssertCount *Target         `yaml:"assert_count,omitempty"`
	AssertURL   string          `yaml:"assert_url,omitempty"`
	WaitVisible *Target         `yaml:"wait_visible,omitempty"`
	WaitURL     *URLWait        `yaml:"wait_url,omitempty"`
	Resize      *Resize         `yaml:"resize,omitempty"`
	Script      string          `yaml:"script,omitempty"`
	Alert       string          `yaml:"alert,omitempty"`
	Log         string          `yaml:"log,omitempty"`
	Context     *Block          `yaml:"context,omitempty"`
	AnyOf       [][]Instruction `yaml:"any_of,omitempty"`
	Collect     []Instruction   `yaml:"collect,omitempty"`
}

// Target locates elements and carries the operands of the instruction that
// uses it.
type Target struct {
	CSS             string `yaml:"css,omitempty"`
	XPath           string `yaml:"xpath,omitempty"`
	ID              string `yaml:"id,omitempty"`
	Name            string `yaml:"name,omitempty"`
	Tag             string `yaml:"tag,omitempty"`
	Class           string `yaml:"class,omitempty"`
	LinkText        string `yaml:"link_text,omitempty"`
	PartialLinkText string `yaml:"partial_link_text,omitempty"`

	// Index picks one element of the matches.
	Index *int `yaml:"index,omitempty"`

	Text     string `yaml:"text,omitempty"`
	Equals   string `yaml:"equals,omitempty"`
	Contains string `yaml:"contains,omitempty"`
	Count    *int   `yaml:"count,omitempty"`

	Interval time.Duration `yaml:"interval,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// URLWait polls the current URL until it matches Pattern.
type URLWait struct {
	Pattern  string        `yaml:"pattern"`
	Interval time.Duration `yaml:"interval,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// Resize sets the browser window size.
type Resize struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Block is a labelled group of steps.
type Block struct {
	Label string        `yaml:"label"`
	Steps []Instruction `yaml:"steps"`
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = filepath.Base(path)
	}
	return s, nil
}

// Parse parses script YAML.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("script has no steps")
	}
	return &s, nil
}

// Compile turns the script into a single step. Vars are set before the
// first instruction runs, in name order.
func (s *Script) Compile() (step.Step[step.Unit], error) {
	body, err := compileAll(s.Steps, "steps")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(s.Vars))
	for name := range s.Vars {
		names = append(names, name)
	}
	sort.Strings(names)

	setup := make([]step.Step[step.Unit], 0, len(names))
	for _, name := range names {
		setup = append(setup, step.SetConfig(name, s.Vars[name]))
	}
	prog := step.Then(step.Discard(step.Sequence(setup...)), body)
	if s.Name != "" {
		prog = step.Context(s.Name, prog)
	}
	return prog, nil
}

func compileAll(instructions []Instruction, path string) (step.Step[step.Unit], error) {
	steps := make([]step.Step[step.Unit], len(instructions))
	for i, inst := range instructions {
		st, err := inst.compile(fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		steps[i] = st
	}
	return step.Discard(step.Sequence(steps...)), nil
}

// keys lists the instruction names that are set.
func (in Instruction) keys() []string {
	var keys []string
	add := func(set bool, key string) {
		if set {
			keys = append(keys, key)
		}
	}
	add(in.Navigate != "", "navigate")
	add(in.Click != nil, "click")
	add(in.Type != nil, "type")
	add(in.Clear != nil, "clear")
	add(in.AssertText != nil, "assert_text")
	add(in.AssertCount != nil, "assert_count")
	add(in.AssertURL != "", "assert_url")
	add(in.WaitVisible != nil, "wait_visible")
	add(in.WaitURL != nil, "wait_url")
	add(in.Resize != nil, "resize")
	add(in.Script != "", "script")
	add(in.Alert != "", "alert")
	add(in.Log != "", "log")
	add(in.Context != nil, "context")
	add(in.AnyOf != nil, "any_of")
	add(in.Collect != nil, "collect")
	return keys
}

func (in Instruction) compile(path string) (step.Step[step.Unit], error) {
	keys := in.keys()
	if len(keys) != 1 {
		return nil, fmt.Errorf("%s: expected exactly one instruction, got %d %v", path, len(keys), keys)
	}

	switch keys[0] {
	case "navigate":
		return withText(in.Navigate, browse.Navigate), nil
	case "click":
		return onTarget(path, in.Click, browse.Click)
	case "type":
		return onTarget(path, in.Type, func(sel browse.Selector) step.Step[step.Unit] {
			return withText(in.Type.Text, func(text string) step.Step[step.Unit] {
				return browse.Type(sel, text)
			})
		})
	case "clear":
		return onTarget(path, in.Clear, browse.Clear)
	case "assert_text":
		return compileAssertText(path, in.AssertText)
	case "assert_count":
		if in.AssertCount.Count == nil {
			return nil, fmt.Errorf("%s: assert_count needs count", path)
		}
		n := *in.AssertCount.Count
		return onTarget(path, in.AssertCount, func(sel browse.Selector) step.Step[step.Unit] {
			return browse.AssertCount(sel, n)
		})
	case "assert_url":
		return withText(in.AssertURL, browse.AssertURLMatches), nil
	case "wait_visible":
		t := in.WaitVisible
		return onTarget(path, t, func(sel browse.Selector) step.Step[step.Unit] {
			visible := sel.Plus(browse.WaitDisplayed(t.Interval, t.Timeout))
			return step.Discard(browse.WaitFor(visible, t.Interval, t.Timeout))
		})
	case "wait_url":
		w := in.WaitURL
		return withText(w.Pattern, func(pattern string) step.Step[step.Unit] {
			return step.Discard(browse.WaitForURL(pattern, w.Interval, w.Timeout))
		}), nil
	case "resize":
		return browse.SetWindowSize(in.Resize.Width, in.Resize.Height), nil
	case "script":
		return step.Bind(browse.ExecuteScript(in.Script), func(v any) step.Step[step.Unit] {
			if v == nil {
				return step.Done()
			}
			return step.Infof("script returned %v", v)
		}), nil
	case "alert":
		return compileAlert(path, in.Alert)
	case "log":
		return withText(in.Log, step.Info), nil
	case "context":
		body, err := compileAll(in.Context.Steps, path+".context")
		if err != nil {
			return nil, err
		}
		return step.Context(in.Context.Label, body), nil
	case "any_of":
		if len(in.AnyOf) == 0 {
			return nil, fmt.Errorf("%s: any_of needs at least one alternative", path)
		}
		alts := make([]step.Step[step.Unit], len(in.AnyOf))
		for i, alt := range in.AnyOf {
			st, err := compileAll(alt, fmt.Sprintf("%s.any_of[%d]", path, i))
			if err != nil {
				return nil, err
			}
			alts[i] = st
		}
		return step.FirstOf(alts[0], alts[1:]...), nil
	case "collect":
		items := make([]step.Step[step.Unit], len(in.Collect))
		for i, inst := range in.Collect {
			st, err := inst.compile(fmt.Sprintf("%s.collect[%d]", path, i))
			if err != nil {
				return nil, err
			}
			items[i] = st
		}
		return step.Discard(step.Collect(items...)), nil
	}
	return nil, fmt.Errorf("%s: unknown instruction %q", path, keys[0])
}

func compileAssertText(path string, t *Target) (step.Step[step.Unit], error) {
	switch {
	case t.Equals != "" && t.Contains != "":
		return nil, fmt.Errorf("%s: assert_text takes equals or contains, not both", path)
	case t.Equals != "":
		return onTarget(path, t, func(sel browse.Selector) step.Step[step.Unit] {
			return withText(t.Equals, func(want string) step.Step[step.Unit] {
				return browse.AssertTextEquals(sel, want)
			})
		})
	case t.Contains != "":
		return onTarget(path, t, func(sel browse.Selector) step.Step[step.Unit] {
			return withText(t.Contains, func(want string) step.Step[step.Unit] {
				return browse.AssertTextContains(sel, want)
			})
		})
	}
	return nil, fmt.Errorf("%s: assert_text needs equals or contains", path)
}

func compileAlert(path, verb string) (step.Step[step.Unit], error) {
	switch verb {
	case "accept":
		return browse.AcceptAlert(), nil
	case "dismiss":
		return browse.DismissAlert(), nil
	}
	return nil, fmt.Errorf("%s: alert must be accept or dismiss, got %q", path, verb)
}

func onTarget(path string, t *Target, fn func(browse.Selector) step.Step[step.Unit]) (step.Step[step.Unit], error) {
	sel, err := t.Selector()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fn(sel), nil
}
