package main

import (
	"os"

	mac "github.com/doismellburning/edcamac/src"
)

func main() {
	os.Exit(mac.MacSimMain(os.Args[1:], os.Stdout, os.Stderr))
}
