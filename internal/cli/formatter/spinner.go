package formatter

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

const spinnerInterval = 80 * time.Millisecond

// StartSpinner redraws message on the current line of w, with the elapsed
// time once a conversion runs past a second. The returned func stops the
// animation and erases the line; later calls do nothing.
func StartSpinner(w io.Writer, message string) func() {
	quit := make(chan struct{})
	finished := make(chan struct{})
	started := time.Now()

	go func() {
		defer close(finished)
		tick := time.NewTicker(spinnerInterval)
		defer tick.Stop()
		for frame := 0; ; frame++ {
			select {
			case <-quit:
				fmt.Fprint(w, "\r\033[K")
				return
			case <-tick.C:
				line := message
				if elapsed := time.Since(started); elapsed >= time.Second {
					line = fmt.Sprintf("%s (%.1fs)", message, elapsed.Seconds())
				}
				glyph := string(spinnerFrames[frame%len(spinnerFrames)])
				fmt.Fprintf(w, "\r  %s %s", StylePurple.Render(glyph), Dim(line))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(quit)
			<-finished
		})
	}
}
