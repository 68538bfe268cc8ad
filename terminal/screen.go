package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"manodiag/scene"
)

// Preview shows the scene full-screen in the terminal and blocks until
// the user quits with q, Esc or Ctrl-C. The status callback, polled on
// every redraw, feeds the bottom bar.
func Preview(surface *scene.MemorySurface, status func() string) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	draw := func() {
		screen.Clear()
		w, h := screen.Size()
		canvas := NewCanvas(w, h-1)
		DrawSurface(canvas, surface)

		style := tcell.StyleDefault
		for y := 0; y < canvas.Height(); y++ {
			for x := 0; x < canvas.Width(); x++ {
				r := canvas.Get(x, y)
				if r != ' ' {
					screen.SetContent(x, y, r, nil, style)
				}
			}
		}

		bar := "q to quit"
		if status != nil {
			bar = status() + "  |  " + bar
		}
		barStyle := tcell.StyleDefault.Reverse(true)
		for x := 0; x < w; x++ {
			screen.SetContent(x, h-1, ' ', nil, barStyle)
		}
		for i, r := range []rune(bar) {
			if i >= w {
				break
			}
			screen.SetContent(i, h-1, r, nil, barStyle)
		}
		screen.Show()
	}

	draw()
	for {
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventResize:
			screen.Sync()
			draw()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				return nil
			}
			if ev.Rune() == 'q' {
				return nil
			}
			draw()
		}
	}
}
