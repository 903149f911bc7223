package main

import (
	// monthly windows are computed in the configured zone, which must load
	// even on images without a zoneinfo database
	_ "time/tzdata"

	"github.com/yusufwdn/reimverse/cmd"
)

func main() {
	cmd.Execute()
}
