// Package gocalc provides the main API for driving the calculator.
package gocalc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/sivchari/gocalc/internal/calculator"
	"github.com/sivchari/gocalc/internal/config"
	"github.com/sivchari/gocalc/internal/history"
	"github.com/sivchari/gocalc/internal/keymap"
)

// Update is what a presentation adapter renders after a key press.
type Update struct {
	calculator.State

	// Alert is set when the user must be told about an error, e.g. division by zero.
	Alert string `json:"alert,omitempty"`
}

// Session binds one calculator engine to the key map and the tape.
// A session is not safe for concurrent use.
type Session struct {
	config *config.Config
	engine *calculator.Engine
	tape   *history.Store
}

// NewSession creates a session. When the tape is enabled in cfg it is loaded
// from and saved to cfg.Tape.File; otherwise it is kept in memory.
func NewSession(cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	tapeFile := ""
	if cfg.Tape.Enabled {
		tapeFile = cfg.Tape.File
	}

	tape, err := history.New(tapeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create tape: %w", err)
	}

	return NewSessionWithTape(cfg, tape), nil
}

// NewSessionWithTape creates a session that records into an existing tape,
// so several sessions can share one. A nil tape keeps an in-memory one.
func NewSessionWithTape(cfg *config.Config, tape *history.Store) *Session {
	if cfg == nil {
		cfg = config.Default()
	}

	if tape == nil {
		// An in-memory store never fails to open.
		tape, _ = history.New("")
	}

	engine := calculator.New(cfg)
	engine.SetRecorder(tape)

	return &Session{
		config: cfg,
		engine: engine,
		tape:   tape,
	}
}

// Press applies one key and returns the resulting state. Unknown keys are
// ignored. Division by zero is reported through Update.Alert rather than as
// an error; the returned error is reserved for invalid input.
func (s *Session) Press(key string) (Update, error) {
	action, ok := keymap.Lookup(key)
	if !ok {
		if s.config.Verbose {
			log.Printf("Ignoring key %q", key)
		}

		return s.update(""), nil
	}

	if s.config.Verbose {
		log.Printf("Key %q: %s", key, keymap.Describe(action))
	}

	err := keymap.Apply(s.engine, action)

	switch {
	case err == nil:
		return s.update(""), nil
	case errors.Is(err, calculator.ErrDivisionByZero):
		return s.update(calculator.AlertMessage(err)), nil
	case errors.Is(err, calculator.ErrMagnitudeOverflow), errors.Is(err, calculator.ErrInvalidResult):
		if s.config.Verbose {
			log.Printf("Computation failed: %v", err)
		}

		return s.update(""), nil
	default:
		return s.update(""), fmt.Errorf("failed to apply key %q: %w", key, err)
	}
}

// PressLine applies every key of a line of terminal input. The alert of any
// key in the line is kept.
func (s *Session) PressLine(line string) (Update, error) {
	update := s.update("")

	var alert string

	for _, key := range keymap.KeysFromLine(line) {
		u, err := s.Press(key)
		if err != nil {
			return u, err
		}

		if u.Alert != "" {
			alert = u.Alert
		}

		update = u
	}

	update.Alert = alert

	return update, nil
}

// Eval resets the engine, applies input and returns the final display.
func (s *Session) Eval(input string) (Update, error) {
	s.engine.Clear()

	return s.PressLine(input)
}

// Run reads lines from in until EOF, "quit" or "exit", and writes the display
// after each line to out.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "quit", "exit":
			return nil
		case "":
			continue
		}

		update, err := s.PressLine(line)
		if err != nil {
			return err
		}

		if update.Alert != "" {
			if _, err := fmt.Fprintf(out, "! %s\n", update.Alert); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}

		if _, err := fmt.Fprintln(out, update.Display); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	return nil
}

// State returns the current engine state.
func (s *Session) State() calculator.State {
	return s.engine.State()
}

// Tape returns the tape the session records into.
func (s *Session) Tape() *history.Store {
	return s.tape
}

// Close saves the tape.
func (s *Session) Close() error {
	if err := s.tape.Save(); err != nil {
		return fmt.Errorf("failed to save tape: %w", err)
	}

	return nil
}

func (s *Session) update(alert string) Update {
	return Update{
		State: s.engine.State(),
		Alert: alert,
	}
}
