package main

import "github.com/lukman83/storefront/cmd"

func main() {
	cmd.Execute()
}
