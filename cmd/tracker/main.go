// Command tracker serves the support tracker API and runs its daily jobs.
//
// @title        Support Tracker API
// @version      1.0
// @description  Tracks customers' Zendesk tickets and Jira issues and reports what changed since the previous day.
// @BasePath     /api/v1
package main

import "github.com/tbourn/go-support-tracker/internal/cli"

func main() {
	cli.Execute()
}
