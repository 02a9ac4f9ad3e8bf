package main

import (
	"github.com/PacificEMIS/pacific-emis-teacher-registration/cmd"
)

func main() {
	cmd.Execute()
}
