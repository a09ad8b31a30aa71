// Package main provides the entry point for the sonarreport CLI.
//
// sonarreport turns the issue list of a SonarQube scan into a styled HTML
// report and a paginated PDF derived from it.
//
// Usage:
//
//	sonarreport generate [project...]
//	sonarreport fetch <project>
//	sonarreport history [project]
//
// See --help for all available options.
package main

// main is the entry point for sonarreport.
func main() {
	Execute()
}
