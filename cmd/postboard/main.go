// Command postboard は投稿APIサーバーを起動する。
//
//	postboard [serve]              APIサーバーを起動する
//	postboard migrate [up|down|version]
//	postboard healthcheck          ローカルの/healthを確認する
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/postboard/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "postboard: %v\n", err)
		os.Exit(1)
	}
}
