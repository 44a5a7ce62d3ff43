//go:build windows

package cli

import (
	"os"

	"golang.org/x/sys/windows"
)

func readWithoutEcho(stdin *os.File) (string, error) {
	handle := windows.Handle(stdin.Fd())
	var saved uint32
	if err := windows.GetConsoleMode(handle, &saved); err != nil {
		return "", err
	}
	if err := windows.SetConsoleMode(handle, saved&^windows.ENABLE_ECHO_INPUT); err != nil {
		return "", err
	}
	defer func() {
		_ = windows.SetConsoleMode(handle, saved)
	}()

	return readLine(stdin)
}
