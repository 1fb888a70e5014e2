package service

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// confirm asks a yes/no question; anything but y or Y is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}
