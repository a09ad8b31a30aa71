// Package log provides logging with automatic masking of credentials,
// built on top of the standard slog package.
//
// The SecureHandler masks:
//   - values of credential keys (token, password, authorization, cookie)
//   - values that look like SonarQube tokens, JWTs or Authorization headers
//   - the userinfo part of URLs in messages, strings and errors
//
// Masking also applies in verbose mode, because CI logs are often shared.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("fetching issues",
//	    "url", "https://sonar.example.com",
//	    "token", token, // logged as ***REDACTED***
//	)
package log
