package main

import "github.com/hpingel/access1581/cmd"

func main() {
	cmd.Execute()
}
