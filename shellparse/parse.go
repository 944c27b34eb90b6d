package shellparse

import (
	"strings"
	"unicode"
)

type scanState int

const (
	// stateIdle is the state before the first non-whitespace rune.
	stateIdle scanState = iota
	stateToken
	// stateGap means unquoted whitespace followed the current token. The token is only finished
	// once the next token starts, or at the end of the input.
	stateGap
	stateSingleQuoted
	stateDoubleQuoted
)

type scanner struct {
	state   scanState
	escaped bool
	token   strings.Builder

	command   string
	args      []string
	variables []Variable
}

// Parse tokenizes a command line such as the value of an Exec key.
//
// Leading NAME=value tokens are collected as variables until the first token that is not an
// assignment, which becomes the command. Every token after the command is an argument, even if
// it looks like an assignment.
//
// Parse never fails on malformed input: an unterminated quote runs to the end of the input and a
// trailing backslash is ignored. False is returned only when no command could be found, i.e. for
// empty input, whitespace, or assignments only.
func Parse(input string) (*Command, bool) {
	var s scanner

	for _, r := range input {
		s.next(r)
	}
	s.finishToken()

	if s.command == "" {
		return nil, false
	}

	return &Command{
		Command:   s.command,
		Args:      s.args,
		Variables: s.variables,
	}, true
}

func (s *scanner) next(r rune) {
	if s.escaped {
		s.token.WriteRune(r)
		s.escaped = false
		return
	}

	isSpace := unicode.IsSpace(r)

	switch s.state {
	case stateIdle:
		if isSpace {
			return
		}
		s.state = stateToken
	case stateGap:
		if isSpace {
			return
		}
		s.finishToken()
		s.state = stateToken
	}

	switch {
	case r == '\\':
		s.escaped = true
	case r == '"':
		s.quote(stateDoubleQuoted, r)
	case r == '\'':
		s.quote(stateSingleQuoted, r)
	case isSpace && s.state == stateToken:
		s.state = stateGap
	default:
		s.token.WriteRune(r)
	}
}

// quote handles a quote rune. Quotes do not nest, inside a span only the quote that opened it
// has meaning and the other one is a literal.
func (s *scanner) quote(quoted scanState, r rune) {
	switch s.state {
	case stateToken:
		s.state = quoted
	case quoted:
		s.state = stateToken
	default:
		s.token.WriteRune(r)
	}
}

func (s *scanner) finishToken() {
	if s.token.Len() == 0 {
		return
	}

	token := s.token.String()
	s.token.Reset()

	if s.command != "" {
		s.args = append(s.args, token)
		return
	}

	if variable, ok := ParseVariable(token); ok {
		s.variables = append(s.variables, variable)
		return
	}

	s.command = token
}
