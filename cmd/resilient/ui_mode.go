package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode picks whether diagnose draws the live progress view.
type uiMode uint8

const (
	uiModeAuto uiMode = iota
	uiModeOn
	uiModeOff
)

var uiModeNames = map[string]uiMode{
	"":     uiModeAuto,
	"auto": uiModeAuto,
	"on":   uiModeOn,
	"off":  uiModeOff,
}

func readUIMode(value string) (uiMode, error) {
	mode, ok := uiModeNames[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return uiModeAuto, fmt.Errorf("--ui takes auto, on or off; got %q", value)
	}
	return mode, nil
}

// shouldUseTUI settles auto by looking at stdout.
func shouldUseTUI(mode uiMode) bool {
	if mode == uiModeAuto {
		return isTerminal(os.Stdout)
	}
	return mode == uiModeOn
}
