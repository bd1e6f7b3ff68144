package main

import (
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/cmd"
)

func main() {
	cmd.Execute()
}
