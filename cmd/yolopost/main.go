package main

import "github.com/MeKo-Tech/yolopost/cmd/yolopost/cmd"

func main() {
	cmd.Execute()
}
