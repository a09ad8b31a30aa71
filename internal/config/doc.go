// Package config provides configuration structures and utilities for
// sonarreport. It defines the report generation options, the SonarQube
// connection settings and the optional .sonarreport YAML file with
// per-project overrides.
package config
