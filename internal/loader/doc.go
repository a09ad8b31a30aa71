// Package loader reads SonarQube issue lists into model.Issue sequences.
//
// The input is a JSON document whose top-level "issues" field holds the
// issue records, as returned by SonarQube's /api/issues/search endpoint.
// Only type, severity, message, component and line are read; every other
// field is ignored.
//
// Two failure conditions are distinguished:
//   - ErrSourceNotFound: the source does not exist
//   - ErrSourceMalformed: the content does not match the schema
//
// A source without issues is not an error; it yields an empty sequence.
package loader
