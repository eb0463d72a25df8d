package main

import (
	"github.com/a793181018/omnisharp-intellij/src/omnisharp/app"
	"go.uber.org/fx"
)

func opts() fx.Option {
	return fx.Options(
		app.Module,
	)
}

func main() {
	fx.New(opts()).Run()
}
