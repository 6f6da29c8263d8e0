// Package sinks provides the stock logging sinks used by the editor.
package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"atelier/editor/logging"
)

const (
	colorReset  = "\x1b[0m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
)

// ConsoleSink writes events as single human-readable lines.
type ConsoleSink struct {
	logger   *log.Logger
	useColor bool
}

// NewConsoleSink builds a console sink over the given writer.
func NewConsoleSink(w io.Writer, cfg logging.ConsoleConfig) *ConsoleSink {
	return &ConsoleSink{
		logger:   log.New(w, "", log.LstdFlags),
		useColor: cfg.UseColor,
	}
}

func (s *ConsoleSink) Write(event logging.Event) error {
	if s.logger == nil {
		return nil
	}
	line := fmt.Sprintf("[%s] severity=%s%s%s%s", event.Type, event.Severity, formatRef("entity", event.Entity), formatRef("component", event.Component), formatPayload(event.Payload))
	if s.useColor {
		switch event.Severity {
		case logging.SeverityWarn:
			line = colorYellow + line + colorReset
		case logging.SeverityError:
			line = colorRed + line + colorReset
		}
	}
	s.logger.Print(line)
	return nil
}

func (s *ConsoleSink) Close(context.Context) error {
	return nil
}

func formatRef(key, value string) string {
	if value == "" {
		return ""
	}
	return fmt.Sprintf(" %s=%s", key, value)
}

func formatPayload(payload any) string {
	if payload == nil {
		return ""
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(" payload=%v", payload)
	}
	return " payload=" + string(data)
}
