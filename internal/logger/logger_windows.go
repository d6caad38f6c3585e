//go:build windows
// +build windows

package logger

import (
	"os"

	"golang.org/x/sys/windows"
)

func GetTerminalInfo(file *os.File) (info TerminalInfo) {
	handle := windows.Handle(file.Fd())

	// Is this file descriptor a terminal?
	var mode uint32
	if err := windows.GetConsoleMode(handle, &mode); err != nil {
		return
	}
	info.IsTTY = true

	// The logger writes ANSI escapes, which the console only understands with
	// virtual terminal processing turned on
	if !hasNoColorEnvironmentVariable() {
		if mode&windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING != 0 {
			info.UseColorEscapes = true
		} else if err := windows.SetConsoleMode(handle, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING); err == nil {
			info.UseColorEscapes = true
		}
	}

	// Get the size of the visible window, not of the scroll-back buffer
	var screen windows.ConsoleScreenBufferInfo
	if err := windows.GetConsoleScreenBufferInfo(handle, &screen); err == nil {
		info.Width = int(screen.Window.Right-screen.Window.Left) + 1
		info.Height = int(screen.Window.Bottom-screen.Window.Top) + 1
	}

	return
}
