package main

import "github.com/tokenfolio/ms-go-portfolios/cmd"

func main() {
	cmd.Execute()
}
