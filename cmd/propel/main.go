// Package main implements the propel CLI tool. It builds compiled
// services remotely and deploys them to Cloud Run.
package main

import "github.com/ynishi/propel/internal/cli"

func main() {
	cli.Execute()
}
