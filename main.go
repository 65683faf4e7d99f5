package main

import (
	"fmt"

	"github.com/webitel/tournament-runtime/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		return
	}
}
