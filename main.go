package main

import (
	"github.com/testsys-project/testsys/cmd/testsys"
	_ "github.com/testsys-project/testsys/pkg/logger"
)

// Values for version are injected by the build.
var (
	VERSION = ""
)

func main() {
	testsys.Execute(VERSION)
}
