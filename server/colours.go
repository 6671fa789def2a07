package server

import "github.com/fatih/color"

var methodColors = map[string]*color.Color{
	"GET":    color.New(color.FgGreen),
	"POST":   color.New(color.FgBlue),
	"PUT":    color.New(color.FgCyan),
	"DELETE": color.New(color.FgYellow),
	"PATCH":  color.New(color.FgMagenta),
}

var (
	defaultMethodColor = color.New(color.FgHiBlack)
	errorColor         = color.New(color.FgRed)
)

// methodLabel pads the method and colours it when the terminal supports colour.
func methodLabel(method string) string {
	c, ok := methodColors[method]
	if !ok {
		c = defaultMethodColor
	}
	return c.Sprintf(" %-7s", method)
}
