package tui

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	log "github.com/sirupsen/logrus"
)

// Clipboard copies text to the system clipboard and, when that is not
// available, asks the terminal to do it with an OSC 52 sequence.
type Clipboard struct {
	write    func(string) error
	terminal func() (io.WriteCloser, error)
}

func NewClipboard(osc52 bool) *Clipboard {
	c := &Clipboard{write: clipboard.WriteAll}
	if osc52 {
		c.terminal = openTTY
	}
	return c
}

func openTTY() (io.WriteCloser, error) {
	return os.OpenFile("/dev/tty", os.O_WRONLY, 0)
}

func (c *Clipboard) Copy(text string) error {
	err := c.write(text)
	if err == nil {
		return nil
	}
	log.Debugf("[clipboard] system clipboard unavailable: %v", err)
	if c.terminal == nil {
		return err
	}

	w, err := c.terminal()
	if err != nil {
		return fmt.Errorf("osc52: open terminal: %w", err)
	}
	defer w.Close()
	if _, err := io.WriteString(w, OSC52(text)); err != nil {
		return fmt.Errorf("osc52: %w", err)
	}
	return nil
}

// OSC52 is the terminal escape sequence that sets the clipboard to text.
func OSC52(text string) string {
	return "\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte(text)) + "\a"
}
