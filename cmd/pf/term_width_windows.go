//go:build windows

package main

import (
	"os"
	"strconv"
)

func detectTerminalWidth() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return 0
}
