package main

import (
	"log"

	corecmd "github.com/EgoisTa-Git/fish-shop/core/cmd"
	coreconfig "github.com/EgoisTa-Git/fish-shop/core/config"
	"github.com/EgoisTa-Git/fish-shop/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        coreconfig.Load,
		Bootstrap:         app.New,
	})
	if err != nil {
		log.Fatal(err)
	}
}
