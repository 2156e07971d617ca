package main

import "github.com/chrisdamba/partnerconsole/cmd"

func main() {
	cmd.Execute()
}
