// Package bootstrap resolves runtime settings from environment variables
// and the parameter store.
//
// Environment variables win over stored parameters. Required settings
// (deck API endpoint and secret, storefront domain) are all checked
// before failing, so one ConfigError lists everything that is missing.
// Successful resolutions are cached; failures are re-attempted on the
// next call.
package bootstrap
