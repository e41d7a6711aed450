// Package termui renders a live, top-like view of a target process's
// threads.
package termui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/acj/remoteprocess/pkg/proc"
)

type TopUI struct {
	app       *tview.Application
	table     *tview.Table
	titleView *tview.TextView
	helpView  *tview.TextView
	proc      *proc.Process
	interval  int
	lock      *proc.Lock // non-nil while the target is suspended by us
}

func NewTopUI(p *proc.Process, interval int) *TopUI {
	app := tview.NewApplication()
	table := tview.NewTable()
	table.SetBorders(false).
		SetFixed(1, 0).
		SetBorder(false)

	ui := &TopUI{
		app:      app,
		table:    table,
		proc:     p,
		interval: interval,
	}

	ui.titleView = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	ui.helpView = tview.NewTextView().
		SetDynamicColors(true)
	ui.helpView.SetText("[yellow]Press [white]q[green] to quit, [white]r[green] to refresh, [white]s[green] to suspend/resume")

	return ui
}

// Run displays the UI until the user quits. The target is resumed
// before returning if it is still suspended.
func (t *TopUI) Run() error {
	t.table.SetCell(0, 0, headerCell("TID", tview.AlignRight))
	t.table.SetCell(0, 1, headerCell("State", tview.AlignLeft))

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.titleView, 1, 0, false).
		AddItem(t.table, 0, 1, true).
		AddItem(t.helpView, 1, 0, false)

	t.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q':
			t.app.Stop()
			return nil
		case 'r':
			t.refresh()
			return nil
		case 's':
			t.toggleSuspend()
			t.refresh()
			return nil
		}
		return event
	})

	t.refresh()
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Duration(t.interval) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.app.QueueUpdateDraw(t.refresh)
			case <-stop:
				return
			}
		}
	}()

	err := t.app.SetRoot(flex, true).Run()
	close(stop)
	if t.lock != nil {
		t.lock.Release()
		t.lock = nil
	}
	return err
}

func (t *TopUI) toggleSuspend() {
	if t.lock != nil {
		t.lock.Release()
		t.lock = nil
		return
	}
	lock, err := t.proc.Lock()
	if err != nil {
		t.titleView.SetText(fmt.Sprintf("[red]suspend failed: %v", err))
		return
	}
	t.lock = lock
}

func (t *TopUI) refresh() {
	threads, err := t.proc.Threads()
	if err != nil {
		t.titleView.SetText(fmt.Sprintf("[red]pid %d: %v", t.proc.Pid, err))
		return
	}

	state := "[green]running"
	if t.lock != nil {
		state = "[red]suspended"
	}
	t.titleView.SetText(fmt.Sprintf("[yellow]pid %d, %d threads, %s", t.proc.Pid, len(threads), state))

	// Drop stale rows from the previous snapshot.
	for row := t.table.GetRowCount() - 1; row > len(threads); row-- {
		t.table.RemoveRow(row)
	}
	for i, th := range threads {
		tid, err := th.ID()
		if err != nil {
			th.Close()
			continue
		}
		active, _ := th.Active()
		stateText := "idle"
		color := tcell.ColorWhite
		if active {
			stateText = "active"
			color = tcell.ColorGreen
		}
		t.table.SetCell(i+1, 0, tview.NewTableCell(fmt.Sprintf("%d", tid)).
			SetAlign(tview.AlignRight).
			SetTextColor(color))
		t.table.SetCell(i+1, 1, tview.NewTableCell(stateText).
			SetAlign(tview.AlignLeft).
			SetTextColor(color))
		th.Close()
	}
}

func headerCell(text string, align int) *tview.TableCell {
	return tview.NewTableCell(text).
		SetAlign(align).
		SetTextColor(tcell.ColorYellow).
		SetBackgroundColor(tcell.ColorDarkSlateGray).
		SetSelectable(false)
}
