// Package config loads, normalizes, and validates vocrecord configuration data.
//
// Every setting has a built-in default: the input directories "images" and
// "annotations", the output file "model/train.record" and the default class
// catalog. A TOML file overrides any subset of them. Without an explicit path,
// Load looks for vocrecord.toml in the working directory and falls back to the
// defaults when it does not exist.
//
// The order of classes.names defines the class IDs written to the records, so
// changing it breaks every consumer that relies on fixed IDs.
package config
