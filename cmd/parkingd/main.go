package main // Entry point package

import "github.com/iliyamo/smart-parking/cmd/parkingd/command"

func main() {
	command.Execute()
}
