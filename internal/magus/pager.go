package magus

import (
	"fmt"
	"io"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/ulikunitz/xz"
	"golang.org/x/term"
)

// readBuildLog loads the most recent archived build log.
func readBuildLog() (string, error) {
	f, err := os.Open(archivedLogPath())
	if err != nil {
		return "", fmt.Errorf("no build log found (has a build run yet?): %w", err)
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to read compressed log: %w", err)
	}
	data, err := io.ReadAll(xr)
	if err != nil {
		return "", fmt.Errorf("failed to decompress log: %w", err)
	}
	return string(data), nil
}

// showBuildLog displays the archived build log, in a scrollable TUI
// when stdout is a terminal and as plain output otherwise.
func showBuildLog() error {
	content, err := readBuildLog()
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Print(content)
		return nil
	}

	app := tview.NewApplication()

	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	textView.SetBorder(true).SetTitle(" magic build log ")
	fmt.Fprint(tview.ANSIWriter(textView), content)
	textView.ScrollToEnd()

	footer := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]Scroll with ↑/↓ or PgUp/PgDn. 'q' or Esc quits.[white]")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(textView, 0, 1, true).
		AddItem(footer, 1, 0, false)

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc, tcell.KeyCtrlQ:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'q' {
				app.Stop()
				return nil
			}
		}
		return event
	})

	if err := app.SetRoot(flex, true).SetFocus(textView).Run(); err != nil {
		return fmt.Errorf("log viewer failed: %w", err)
	}
	return nil
}
