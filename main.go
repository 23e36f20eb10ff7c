/*
Copyright © 2025 Gary Zero
*/
package main

import "github.com/gary-zero/hierplan/cmd"

func main() {
	cmd.Execute()
}
