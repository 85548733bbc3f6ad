package main

import "github.com/frahmantamala/calendar-sharing/cmd"

func main() {
	cmd.Execute()
}
