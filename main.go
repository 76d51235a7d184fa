package main

import "github.com/arya-analytics/aegis/cmd"

func main() { cmd.Execute() }
