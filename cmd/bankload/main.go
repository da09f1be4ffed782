// Command bankload loads the bank dataset CSV files into a relational
// database.
//
//	bankload import              recreate the database and load every file
//	bankload stats               print row counts of an existing database
//	bankload validate            lint the configuration
//	bankload schedule --cron ..  run import on a cron schedule
package main

import (
	"os"

	// Register every storage backend; the config picks one.
	_ "bankload/internal/storage/all"
)

func main() {
	if err := newRootCmd(os.Getenv).Execute(); err != nil {
		os.Exit(1)
	}
}
