package main

import "github.com/goplus/tpconf/cmd/tpconf/internal"

func main() {
	internal.Execute()
}
