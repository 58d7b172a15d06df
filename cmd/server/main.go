package main

import "github.com/nguyentranbao-ct/meritflow/cmd"

func main() {
	cmd.Execute()
}
