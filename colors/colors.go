package colors

import "github.com/fatih/color"

var (
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
)

// ForStatus renders an HTTP status code green for success, red for errors.
func ForStatus(status int) string {
	if status >= 400 {
		return Red(status)
	}
	return Green(status)
}
