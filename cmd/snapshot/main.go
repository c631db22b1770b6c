package main

import (
	"fmt"
	"os"

	"github.com/zatekoja/Medicalqueryreview/internal/infrastructure/observability"
)

func main() {
	observability.InitLogger("snapshot-cli", os.Getenv("APP_ENV"))

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
