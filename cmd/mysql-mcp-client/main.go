package main

import (
	"os"

	"github.com/sqlbridge/mysql-mcp/internal/cli"
)

func main() {
	os.Exit(int(cli.Run()))
}
