// Package sonarqube downloads issue lists from a SonarQube server.
//
// The Client pages through /api/issues/search for one project and returns
// the unresolved issues. WriteIssuesFile stores them in the document shape
// read by the loader package, so a fetched list can be rendered like any
// exported one.
//
// Authentication uses a user token sent as the Basic auth user name with
// an empty password, which is what SonarQube expects for tokens.
package sonarqube
