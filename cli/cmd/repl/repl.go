package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/ftd/lang/exec"
	"github.com/ardnew/ftd/lang/interp"
	"github.com/ardnew/ftd/log"
)

// Config configures a REPL session.
type Config struct {
	// Load interprets the document. It is called again by reload and edit.
	Load func(context.Context) (*interp.Document, error)
	// Render draws an element tree for the tree command. YAML is used when
	// nil.
	Render func(*exec.Tree) string
	// Path is the document's source file. Edit is unavailable when empty.
	Path string
	// CacheDir holds the history file. History is not saved when empty.
	CacheDir string
	Logger   log.Logger
}

type (
	// editDoneMsg is sent when the edited document was reloaded.
	editDoneMsg struct{}
	// editDeclinedMsg is sent when the user stopped editing a document that
	// fails to interpret.
	editDeclinedMsg struct{}
	// editErrorMsg is sent when the editor could not run.
	editErrorMsg struct{ err error }
)

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

const helpMessage = `
: Commands (press Esc to toggle mode):

  help                     Print this message
  list [prefix]            List definitions
  show <name>              Describe a definition
  tree                     Print the element tree
  fire <element> <event>   Run an element's event handlers
  call <function> [a=v]    Call a function; v is an expression or $variable
  reload                   Interpret the document again, discarding changes
  edit                     Edit the document in $EDITOR and reload it
  clear                    Clear screen
  quit                     Exit REPL

Usage:
  Type an expression to evaluate it; variables are written $name
  Elements are named by id or by container path, e.g. 0.1
  Completions appear as you type; Tab / Shift-Tab cycle through them
  Press Space to accept the current candidate
  Use Up/Down for history, Shift+Up/Shift+Down for history of this mode
  Press Ctrl+C on an empty line or Ctrl+D to exit
`

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

func echo(mode inputMode, input string) tea.Cmd {
	if mode == modeCtrl {
		return tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input))
	}

	return tea.Println(promptStyle.Render(evalPrompt) + inputStyle.Render(input))
}

func printError(err error) tea.Cmd {
	return tea.Println(errorStyle.Render("error: " + err.Error()))
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	session      *session
	path         string
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches
	candidates   []string
	wordStart    int
	wordEnd      int
	suggIdx      int
	tabActive    bool
	preTabText   string
	preTabCursor int
	width        int
	quitting     bool
	mode         inputMode
	saved        [2]struct {
		text   string
		cursor int
	}
}

// Run interprets the document and starts an interactive session over it.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if cfg.Load == nil {
		return ErrNoDocument
	}

	cfg.Logger.TraceContext(ctx, "repl start",
		log.Path(cfg.Path),
		slog.String("cache_dir", cfg.CacheDir),
	)

	s := &session{load: cfg.Load, render: cfg.Render, logger: cfg.Logger}
	if err := s.reload(ctx); err != nil {
		return err
	}

	var history *History
	if cfg.CacheDir != "" {
		history = NewHistory(filepath.Join(cfg.CacheDir, baseHistory))
	} else {
		history = NewHistory("")
	}

	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "could not load history", log.Err(err))
	}

	cfg.Logger.TraceContext(ctx, "repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	p := tea.NewProgram(newModel(ctx, s, cfg.Path, history, cfg.Logger), tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	s *session,
	path string,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    s,
		path:       path,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editDoneMsg:
		return m, tea.Println(resultStyle.Render(
			"✔ reloaded " + m.session.doc.Name))

	case editDeclinedMsg:
		return m, tea.Println(hintStyle.Render("🗴 edit abandoned, document unchanged"))

	case editErrorMsg:
		return m, printError(msg.err)
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	input := m.input.Value()

	return m.input.View() + "\n" + m.hint(input) + "\n"
}

// hint returns the line shown below the input: the history position, a
// signature, completions, or usage.
func (m model) hint(input string) string {
	if m.historyIdx < m.history.Len() {
		return hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeEval {
			return hintStyle.Render("Type an expression or press Esc for commands")
		}

		return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (Esc to return)")
	}

	if m.mode == modeEval {
		if call := detectFunctionCall(input, m.input.Position()); call.inCall {
			if sig, params := getSignature(m.session.doc, call.name); sig != "" {
				return renderSignatureHint(sig, params, call.argIndex)
			}
		}
	}

	return renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if m.tabActive && len(m.matches) > 0 {
			m.tabActive = false
			refreshMatches(&m, true)

			return m, nil
		}

		return m.submit()

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.recall(-1, false), nil

	case tea.KeyDown:
		return m.recall(1, false), nil

	case tea.KeyShiftUp:
		return m.recall(-1, true), nil

	case tea.KeyShiftDown:
		return m.recall(1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		return m.switchToMode(1 - m.mode), nil

	case tea.KeyRunes, tea.KeySpace:
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by step. A sole candidate is accepted at
// once.
func (m model) cycle(step int) model {
	n := len(m.matches)

	switch {
	case n == 0:
		return m

	case n == 1:
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m

	case m.tabActive:
		m.suggIdx = (m.suggIdx + step + n) % n

	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word with replacement and moves
// the cursor after it.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// refreshMatches recomputes completions. With autoConfirm, a word that
// already equals its sole candidate is accepted.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

// submit evaluates the input line or runs it as a command.
func (m model) submit() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.saved = [2]struct {
		text   string
		cursor int
	}{}
	m.input.SetValue("")

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history", log.Err(err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		return m.command(input)
	}

	m.logger.TraceContext(m.ctxFunc(), "repl eval", slog.String("input", input))

	out, err := m.session.evaluate(m.ctxFunc(), input)
	if err != nil {
		return m, tea.Sequence(echo(modeEval, input), printError(err))
	}

	return m, tea.Sequence(echo(modeEval, input), tea.Println(resultStyle.Render(out)))
}

// command runs a control command.
func (m model) command(input string) (model, tea.Cmd) {
	fields := strings.Fields(input)
	name, args := fields[0], fields[1:]

	ctx := m.ctxFunc()

	m.logger.TraceContext(ctx, "repl command",
		slog.String("command", name),
		slog.Any("args", args),
	)

	var (
		out string
		err error
	)

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo(modeCtrl, input), tea.Quit)

	case "h", "help":
		out = helpMessage

	case "c", "clear":
		return m, tea.ClearScreen

	case "l", "list":
		out = m.session.list(strings.Join(args, ""))

	case "s", "show":
		if len(args) != 1 {
			err = fmt.Errorf("%w: show <name>", ErrUsage)
		} else {
			out, err = m.session.show(args[0])
		}

	case "t", "tree":
		out = m.session.showTree()

	case "f", "fire":
		if len(args) != 2 {
			err = fmt.Errorf("%w: fire <element> <event>", ErrUsage)
		} else if err = m.session.fire(ctx, args[0], args[1]); err == nil {
			out = m.session.showTree()
		}

	case "call":
		if len(args) == 0 {
			err = fmt.Errorf("%w: call <function> [name=value ...]", ErrUsage)
		} else if err = m.session.call(ctx, args[0], args[1:]); err == nil {
			out = m.session.showTree()
		}

	case "r", "reload":
		if err = m.session.reload(ctx); err == nil {
			out = resultStyle.Render("✔ reloaded " + m.session.doc.Name)
		}

	case "e", "edit":
		if m.path == "" {
			err = fmt.Errorf("%w: document was not read from a file", ErrUsage)

			break
		}

		return m, tea.Sequence(echo(modeCtrl, input), m.edit())

	default:
		err = fmt.Errorf("%w: unknown command %q (try 'help')", ErrUsage, name)
	}

	if err != nil {
		return m, tea.Sequence(echo(modeCtrl, input), printError(err))
	}

	return m, tea.Sequence(echo(modeCtrl, input), tea.Println(out))
}

func (m model) edit() tea.Cmd {
	cmd := &editCommand{
		path:    m.path,
		session: m.session,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		}

		return editDoneMsg{}
	})
}

// recall moves through history by step. Entries from the other mode switch
// modes unless sameMode is set, in which case they are skipped. Moving past
// the newest entry clears the input.
func (m model) recall(step int, sameMode bool) model {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.Entry(i)
		if err != nil || (sameMode && entry.Mode != m.mode) {
			continue
		}

		if entry.Mode != m.mode {
			m = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		refreshMatches(&m, false)

		return m
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m
}

// switchToMode switches modes, keeping each mode's unsubmitted input.
func (m model) switchToMode(mode inputMode) model {
	m.saved[m.mode].text = m.input.Value()
	m.saved[m.mode].cursor = m.input.Position()

	m.mode = mode
	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	m.input.SetValue(m.saved[mode].text)
	m.input.SetCursor(m.saved[mode].cursor)
	refreshMatches(&m, false)

	return m
}
