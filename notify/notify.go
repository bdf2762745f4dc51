// Package notify is the fire-and-forget alert capability collaborators
// implement. Delivery failures are logged, never propagated: a missed
// alert must not fail a run.
package notify

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Notifier accepts plain-text alerts.
type Notifier interface {
	Notify(message string) error
}

// Console writes alerts to a writer (stdout by default).
type Console struct {
	Out io.Writer
}

func (c Console) Notify(message string) error {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	_, err := fmt.Fprintln(out, message)
	return err
}

// Multi fans an alert out to several notifiers. Individual failures are
// logged and swallowed.
type Multi []Notifier

func (m Multi) Notify(message string) error {
	for _, n := range m {
		if err := n.Notify(message); err != nil {
			log.Printf("notify: %v", err)
		}
	}
	return nil
}

// Send delivers through n if non-nil, logging any failure.
func Send(n Notifier, format string, args ...any) {
	if n == nil {
		return
	}
	if err := n.Notify(fmt.Sprintf(format, args...)); err != nil {
		log.Printf("notify: %v", err)
	}
}
