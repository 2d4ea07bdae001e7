/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/keiradan/trackcard/cmd"

func main() {
	cmd.Execute()
}
