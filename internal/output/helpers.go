package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/tanq16/vkdl/internal/utils"
	"golang.org/x/term"
)

func PrintProgressBar(current, total int64, width int) string {
	if width <= 0 {
		width = 30
	}
	if total <= 0 {
		total = 1
	}
	if current < 0 {
		current = 0
	}
	if current > total {
		current = total
	}
	percent := float64(current) / float64(total)
	filled := max(0, min(int(percent*float64(width)), width))
	bar := StyleSymbols["bullet"]
	bar += strings.Repeat(StyleSymbols["hline"], filled)
	if filled < width {
		bar += strings.Repeat(" ", width-filled)
	}
	bar += StyleSymbols["bullet"]
	return debugStyle.Render(fmt.Sprintf("%s %.1f%% %s ", bar, percent*100, StyleSymbols["bullet"]))
}

// progressLine renders one job's transfer. With an unknown total only the
// byte count and speed are shown.
func progressLine(transferred, total int64, elapsed float64) string {
	speed := debugStyle.Render(utils.FormatSpeed(transferred, elapsed))
	if total <= 0 {
		return fmt.Sprintf("%s %s %s", debugStyle.Render(utils.FormatBytes(uint64(max(0, transferred)))), StyleSymbols["bullet"], speed)
	}
	sizes := fmt.Sprintf("%s / %s", utils.FormatBytes(uint64(max(0, transferred))), utils.FormatBytes(uint64(total)))
	return fmt.Sprintf("%s%s %s %s", PrintProgressBar(transferred, total, 30), debugStyle.Render(sizes), StyleSymbols["bullet"], speed)
}

func terminalHeight() int {
	_, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || height <= 0 {
		return 24
	}
	return height
}

func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
