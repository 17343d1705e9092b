package ui

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnavailable is returned when no clipboard utility was found
// (xclip, xsel or wl-copy on Linux).
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

var writeClipboard = clipboard.WriteAll

// CopyToClipboard places text on the system clipboard.
func CopyToClipboard(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	if err := writeClipboard(text); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	return nil
}
