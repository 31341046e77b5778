package main

import "records-manager/cmd"

func main() {
	cmd.Execute()
}
