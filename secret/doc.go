// Package secret provides strict environment variable expansion for
// configuration values (see ExpandEnvStrict): a "${VAR}" reference that
// has no corresponding environment variable is an error rather than a
// silent empty substitution, so a misconfigured OTLP header fails loud
// at Initialize time instead of silently shipping an empty credential.
package secret
