package main

import (
	"context"
	"os"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/cli"
)

func main() {
	ctx := context.Background()

	code, _ := cli.Run(ctx, cli.OSStreams(), os.Args[1:])
	os.Exit(code)
}
